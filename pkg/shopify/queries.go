package shopify

// ==================== 列表查询 ====================

const ordersQuery = `
query Orders($first: Int!, $after: String) {
  orders(first: $first, after: $after, sortKey: CREATED_AT) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      name
      tags
      totalPriceSet { shopMoney { amount } }
      discountCodes
      displayFulfillmentStatus
      customer { numberOfOrders }
      lineItems(first: 50) { nodes { product { id } } }
      shippingLines(first: 10) { nodes { title } }
    }
  }
}`

const customersQuery = `
query Customers($first: Int!, $after: String) {
  customers(first: $first, after: $after, sortKey: CREATED_AT) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      email
      tags
      amountSpent { amount }
      numberOfOrders
      emailMarketingConsent { marketingState }
      createdAt
      defaultAddress { countryCodeV2 }
    }
  }
}`

const productsQuery = `
query Products($first: Int!, $after: String) {
  products(first: $first, after: $after, sortKey: CREATED_AT) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      title
      tags
      vendor
      productType
      publishedAt
      totalInventory
      priceRangeV2 { minVariantPrice { amount } }
      variants(first: 100) { nodes { sku } }
    }
  }
}`

// ==================== 计数 ====================

const ordersCountQuery = `query { ordersCount(limit: null) { count } }`

const customersCountQuery = `query { customersCount { count } }`

const productsCountQuery = `query { productsCount(limit: null) { count } }`

// ==================== 单个对象 ====================

const productTitleQuery = `
query ProductTitle($id: ID!) {
  product(id: $id) { id title }
}`

// ==================== 写入标签 ====================

const orderUpdateMutation = `
mutation orderUpdate($input: OrderInput!) {
  orderUpdate(input: $input) {
    order { id tags }
    userErrors { field message }
  }
}`

const customerUpdateMutation = `
mutation customerUpdate($input: CustomerInput!) {
  customerUpdate(input: $input) {
    customer { id tags }
    userErrors { field message }
  }
}`

const productUpdateMutation = `
mutation productUpdate($input: ProductInput!) {
  productUpdate(input: $input) {
    product { id tags }
    userErrors { field message }
  }
}`

package summarizer

import "strings"

// Role is a semantic tag assigned to a column from its header text.
type Role string

const (
	RoleDate     Role = "date"
	RoleMonetary Role = "monetary"
	RoleProduct  Role = "product"
	RoleCustomer Role = "customer"
	RoleQuantity Role = "quantity"
)

// Roles lists every role in lookup order.
var Roles = []Role{RoleDate, RoleMonetary, RoleProduct, RoleCustomer, RoleQuantity}

// roleKeywords is matched as lower-case substrings of a header. "sales" is
// both monetary and quantity on purpose.
var roleKeywords = map[Role][]string{
	RoleDate:     {"date", "time"},
	RoleMonetary: {"revenue", "sales", "amount"},
	RoleProduct:  {"product", "item"},
	RoleCustomer: {"customer", "user"},
	RoleQuantity: {"sales", "quantity", "units"},
}

// distributionExclusions keeps identifier-like and temporal columns out of
// the generic distribution series.
var distributionExclusions = []string{"date", "time", "order", "status", "fulfillment", "id"}

// ColumnRoles holds, per role, the index of the first matching header or -1.
type ColumnRoles struct {
	Date     int `json:"date"`
	Monetary int `json:"monetary"`
	Product  int `json:"product"`
	Customer int `json:"customer"`
	Quantity int `json:"quantity"`
}

// Index returns the column index chosen for role, or -1.
func (c ColumnRoles) Index(role Role) int {
	switch role {
	case RoleDate:
		return c.Date
	case RoleMonetary:
		return c.Monetary
	case RoleProduct:
		return c.Product
	case RoleCustomer:
		return c.Customer
	case RoleQuantity:
		return c.Quantity
	}
	return -1
}

// Has reports whether a column was found for role.
func (c ColumnRoles) Has(role Role) bool {
	return c.Index(role) >= 0
}

// ClassifyColumns scans headers left to right and picks, for each role, the
// first header containing one of the role's keywords. A header may be
// picked for several roles.
func ClassifyColumns(headers []string) ColumnRoles {
	return ColumnRoles{
		Date:     firstMatch(headers, roleKeywords[RoleDate]),
		Monetary: firstMatch(headers, roleKeywords[RoleMonetary]),
		Product:  firstMatch(headers, roleKeywords[RoleProduct]),
		Customer: firstMatch(headers, roleKeywords[RoleCustomer]),
		Quantity: firstMatch(headers, roleKeywords[RoleQuantity]),
	}
}

// RolesOf returns every role a single header qualifies for, in Roles order.
func RolesOf(header string) []Role {
	var roles []Role
	for _, role := range Roles {
		if containsAny(header, roleKeywords[role]) {
			roles = append(roles, role)
		}
	}
	return roles
}

// DistributionColumn returns the first column that is not excluded from
// the distribution series, or -1 when every column is excluded.
func DistributionColumn(headers []string) int {
	for i, header := range headers {
		if !containsAny(header, distributionExclusions) {
			return i
		}
	}
	return -1
}

func firstMatch(headers []string, keywords []string) int {
	for i, header := range headers {
		if containsAny(header, keywords) {
			return i
		}
	}
	return -1
}

func containsAny(header string, keywords []string) bool {
	lower := strings.ToLower(header)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

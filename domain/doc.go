// Package domain holds the application-facing records (camelCase JSON) and the
// pure lifecycle rules of the CRM: case status mapping, milestone payment
// derivation, paid/remaining amounts and accounting ratios.
//
// Nothing in this package touches storage; rows are translated in package mappers.
package domain

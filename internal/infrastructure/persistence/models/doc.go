// Package models contains GORM-specific persistence models that map to
// database tables. Domain types stay free of ORM tags; repositories convert
// between the two with the ToDomain/FromDomain mappers defined here.
package models

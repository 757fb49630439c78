// Package warehouse holds sample source models that reference the store
// app across packages.
package warehouse

import (
	"encoding/json"

	"github.com/golang-sql/civil"
)

// Location is a storage site.
type Location struct {
	_ struct{} `meta:"ordering=code"`

	Code     string          `db:"code,pk,max_length=8"`
	Name     string          `db:"name,max_length=80"`
	Capacity uint16          `db:"capacity"`
	Details  json.RawMessage `db:"details,null"`
}

// StockLevel counts a store product at a location.
type StockLevel struct {
	Location string     `db:"location,fk=Location,on_delete=cascade,related_name=stock"`
	Product  int64      `db:"product,fk=store.Product,on_delete=cascade"`
	Quantity int        `db:"quantity"`
	Counted  civil.Date `db:"counted"`
	Weight   float64    `db:"weight,null"`
}

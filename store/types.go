// Package store holds sample source models declared with db struct tags.
// The analyzer turns them into schema descriptors; the CLI mirrors them.
package store

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is stored as a bounded string.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Timestamped is an abstract base: it has no table of its own.
type Timestamped struct {
	_ struct{} `meta:"abstract"`

	Created time.Time `db:"created,auto_now_add"`
	Updated time.Time `db:"updated,auto_now"`
}

// Product is an item available for sale.
type Product struct {
	_ struct{} `meta:"ordering=name"`

	ID          int64           `db:"id,pk"`
	SKU         string          `db:"sku,kind=slug,unique"`
	Name        string          `db:"name,max_length=120,index"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price,max_digits=10,decimal_places=2"`
	Inventory   uint32          `db:"inventory,default=0"`
	Image       string          `db:"image,kind=image"`
}

// Customer places orders.
type Customer struct {
	ID       int64       `db:"id,pk"`
	Email    string      `db:"email,kind=email,unique"`
	FullName string      `db:"full_name,max_length=100"`
	Birthday *civil.Date `db:"birthday"`
	Website  string      `db:"website,kind=url,null"`
	LastIP   *string     `db:"last_ip,kind=generic_ip_address,unpack_ipv4"`
	Active   bool        `db:"active,default=true"`
	// Referrer points back at another customer.
	Referrer *int64 `db:"referrer,fk=self,on_delete=set_null,related_name=referrals"`
}

// Order is one purchase.
type Order struct {
	_ struct{} `meta:"table=store_orders,ordering=-placed"`

	Ref      uuid.UUID     `db:"ref,pk"`
	Customer int64         `db:"customer,fk=Customer,on_delete=cascade,related_name=orders"`
	Status   OrderStatus   `db:"status,max_length=16,default=PENDING"`
	Placed   time.Time     `db:"placed,auto_now_add"`
	Window   time.Duration `db:"window,null"`
	Products []int64       `db:"products,m2m=Product,through=store_order_lines,through_fields=order_id;product_id"`
}

// Shipment ships an order once.
type Shipment struct {
	Timestamped

	ID      int32      `db:"id,pk"`
	Order   uuid.UUID  `db:"order,o2o=Order,on_delete=cascade,related_name=shipment"`
	Carrier string     `db:"carrier,max_length=40,validators=min_length=2"`
	Slot    civil.Time `db:"slot"`
	Notes   []byte     `db:"notes,null"`
	Label   string     `db:"-"`
}

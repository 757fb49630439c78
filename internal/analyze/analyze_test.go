package analyze

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/synth"
	"orm-mirror/store"
	"orm-mirror/warehouse"
)

func storeStructs(t *testing.T) []StructInfo {
	t.Helper()

	structs, err := Reflect(store.Timestamped{}, &store.Product{}, store.Customer{}, store.Order{}, store.Shipment{})
	require.NoError(t, err)

	return structs
}

func modelByName(t *testing.T, models []*schema.Model, name string) *schema.Model {
	t.Helper()

	for _, m := range models {
		if m.Name == name {
			return m
		}
	}

	t.Fatalf("no model %s", name)

	return nil
}

func TestReflect_TypeStrings(t *testing.T) {
	structs := storeStructs(t)
	require.Len(t, structs, 5)

	order := structs[3]
	assert.Equal(t, TypeID{PkgPath: "orm-mirror/store", Name: "Order"}, order.ID)
	assert.Equal(t, "store", order.ID.Package())

	types := make(map[string]string)
	basics := make(map[string]string)

	for _, f := range order.Fields {
		types[f.Name] = f.Type
		basics[f.Name] = f.Basic
	}

	assert.Equal(t, "github.com/google/uuid.UUID", types["Ref"])
	assert.Equal(t, "orm-mirror/store.OrderStatus", types["Status"])
	assert.Equal(t, "string", basics["Status"])
	assert.Equal(t, "time.Duration", types["Window"])
	assert.Equal(t, "[]int64", types["Products"])

	shipment := structs[4]
	assert.Empty(t, shipment.Meta, "embedded meta does not leak")
	assert.Equal(t, "Created", shipment.Fields[0].Name)
}

func TestReflect_Rejects(t *testing.T) {
	_, err := Reflect(42)
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))

	type plain struct{ A int }

	_, err = Reflect(plain{})
	assert.True(t, errors.Is(err, diagnostic.ErrConfiguration))
}

func TestBuild_Store(t *testing.T) {
	models, err := Build(storeStructs(t))
	require.NoError(t, err)

	base := modelByName(t, models, "Timestamped")
	assert.True(t, base.Meta.Abstract)

	product := modelByName(t, models, "Product")
	assert.Equal(t, []string{"name"}, product.Meta.Ordering)

	pk, ok := product.PrimaryKey()
	require.True(t, ok)
	assert.Equal(t, schema.KindBigAuto, pk.Kind)

	sku, _ := product.Column("sku")
	assert.Equal(t, schema.KindSlug, sku.Kind)
	assert.True(t, sku.Unique)

	name, _ := product.Column("name")
	assert.Equal(t, schema.KindChar, name.Kind)
	assert.Equal(t, 120, name.MaxLength)
	assert.True(t, name.Index)

	desc, _ := product.Column("description")
	assert.Equal(t, schema.KindText, desc.Kind)
	assert.False(t, desc.HasDefault())

	price, _ := product.Column("price")
	assert.Equal(t, schema.KindDecimal, price.Kind)
	assert.Equal(t, 10, price.MaxDigits)
	assert.Equal(t, 2, price.DecimalPlaces)

	inv, _ := product.Column("inventory")
	assert.Equal(t, schema.KindPositiveInteger, inv.Kind)
	assert.Equal(t, int64(0), inv.Default)

	customer := modelByName(t, models, "Customer")
	birthday, _ := customer.Column("birthday")
	assert.Equal(t, schema.KindDate, birthday.Kind)
	assert.True(t, birthday.Null, "pointer fields are nullable")

	active, _ := customer.Column("active")
	assert.Equal(t, true, active.Default)

	ref, _ := customer.Column("referrer")
	assert.Equal(t, schema.KindForeignKey, ref.Kind)
	assert.Equal(t, &schema.Relation{To: "self", RelatedName: "referrals", OnDelete: schema.SetNull}, ref.Relation)

	order := modelByName(t, models, "Order")
	assert.Equal(t, "store_orders", order.TableName())
	assert.Equal(t, []string{"-placed"}, order.Meta.Ordering)

	opk, _ := order.PrimaryKey()
	assert.Equal(t, "ref", opk.Name)
	assert.Equal(t, schema.KindUUID, opk.Kind)

	products, _ := order.Column("products")
	assert.Equal(t, schema.KindManyToMany, products.Kind)
	assert.Equal(t, [2]string{"order_id", "product_id"}, products.Relation.ThroughFields, spew.Sdump(products))

	status, _ := order.Column("status")
	assert.Equal(t, "PENDING", status.Default)

	shipment := modelByName(t, models, "Shipment")
	names := make([]string, len(shipment.Columns))
	for i, c := range shipment.Columns {
		names[i] = c.Name
	}

	assert.Equal(t, []string{"created", "updated", "id", "order", "carrier", "slot", "notes"}, names)

	carrier, _ := shipment.Column("carrier")
	assert.Equal(t, []string{"min_length=2"}, carrier.Validators)
}

func TestBuild_AddsAutoID(t *testing.T) {
	structs, err := Reflect(warehouse.StockLevel{})
	require.NoError(t, err)

	models, err := Build(structs)
	require.NoError(t, err)

	cols := models[0].Columns
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, schema.KindAuto, cols[0].Kind)

	weight, _ := models[0].Column("weight")
	assert.Equal(t, schema.KindFloat, weight.Kind)
}

func TestBuild_Errors(t *testing.T) {
	type unknownOpt struct {
		A string `db:"a,bogus"`
	}

	type noOnDelete struct {
		A int64 `db:"a,fk=X"`
	}

	type badKind struct {
		A string `db:"a,kind=nope"`
	}

	type badType struct {
		A complex128 `db:"a"`
	}

	type badMeta struct {
		_ struct{} `meta:"tabel=x"`
		A string   `db:"a"`
	}

	type badLen struct {
		A string `db:"a,max_length=x"`
	}

	for _, v := range []any{unknownOpt{}, noOnDelete{}, badKind{}, badType{}, badMeta{}, badLen{}} {
		structs, err := Reflect(v)
		require.NoError(t, err)

		_, err = Build(structs)
		assert.Error(t, err, reflect.TypeOf(v).Name())
	}

	structs, err := Reflect(badType{})
	require.NoError(t, err)

	_, err = Build(structs)
	assert.True(t, errors.Is(err, diagnostic.ErrNotSupported))
}

func TestRegister_Synthesizes(t *testing.T) {
	structs := storeStructs(t)

	more, err := Reflect(warehouse.Location{}, warehouse.StockLevel{})
	require.NoError(t, err)

	reg := schema.NewRegistry()
	require.NoError(t, Register(reg, "", structs))
	require.NoError(t, Register(reg, "", more))

	apps := reg.Apps()
	require.Len(t, apps, 2)
	assert.Equal(t, "store", apps[0].Label)
	assert.Equal(t, "warehouse", apps[1].Label)

	out, diags, err := synth.New().Run(reg)
	require.NoError(t, err, spew.Sdump(diags))
	assert.Len(t, diags.Warnings, 1, "product image is skipped")

	stock := out.MustAsync("StockLevel")
	f, ok := stock.Field("product")
	require.True(t, ok)

	fk, ok := f.(*field.ForeignKey)
	require.True(t, ok)
	assert.Equal(t, "ProductAsync", fk.Target())
	assert.Equal(t, "product_id", fk.Options().ColumnName())
}

package field

import (
	"time"

	"orm-mirror/internal/dialect"
	"orm-mirror/internal/diagnostic"
)

type fakeInstance struct {
	isNew  bool
	values map[string]any
}

func newInstance(isNew bool) *fakeInstance {
	return &fakeInstance{isNew: isNew, values: map[string]any{}}
}

func (i *fakeInstance) IsNew() bool            { return i.isNew }
func (i *fakeInstance) Set(name string, v any) { i.values[name] = v }

type warnings []diagnostic.Warning

func (w *warnings) collect(x diagnostic.Warning) { *w = append(*w, x) }

var kyiv = time.FixedZone("EET", 2*60*60)

func envFor(b dialect.Backend) Env {
	return Env{Backend: b, UseTZ: true, Location: kyiv}
}

var backends = []dialect.Backend{dialect.Postgres, dialect.MySQL, dialect.SQLite, dialect.MSSQL}

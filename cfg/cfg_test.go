package cfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatlonely/modelorm/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogOptions struct {
	Store      string        `cfg:"store" def:"map" validate:"oneof=map redis bolt"`
	Serializer string        `cfg:"serializer" def:"json"`
	Timeout    time.Duration `cfg:"timeout" def:"1s"`
}

type appOptions struct {
	Driver  string          `cfg:"driver" validate:"required"`
	Prefix  string          `cfg:"prefix" def:"orm_"`
	Workers int             `cfg:"workers" def:"4"`
	Tags    []string        `cfg:"tags" def:"a, b"`
	Catalog catalogOptions  `cfg:"catalog"`
	Extra   *catalogOptions `cfg:"extra"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "app.yaml", `
driver: sqlite3
workers: 8
catalog:
  store: bolt
`)

	var opts appOptions
	require.NoError(t, Load(path, &opts))
	assert.Equal(t, "sqlite3", opts.Driver)
	assert.Equal(t, "orm_", opts.Prefix)
	assert.Equal(t, 8, opts.Workers)
	assert.Equal(t, []string{"a", "b"}, opts.Tags)
	assert.Equal(t, "bolt", opts.Catalog.Store)
	assert.Equal(t, "json", opts.Catalog.Serializer)
	assert.Equal(t, time.Second, opts.Catalog.Timeout)
	assert.Nil(t, opts.Extra)
}

func TestLoadErrors(t *testing.T) {
	var opts appOptions

	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &opts))
	assert.Error(t, Load(writeFile(t, "app.xml", "<driver/>"), &opts))
	assert.Error(t, Load(writeFile(t, "app.json", `{"prefix": "x_"}`), &opts), "driver is required")
	assert.Error(t, Load(writeFile(t, "app.toml", "driver = \"mysql\"\n[catalog]\nstore = \"etcd\"\n"), &opts))
}

func TestDecode(t *testing.T) {
	var opts appOptions
	require.NoError(t, Decode([]byte("driver = mysql\nprefix = app_\n[catalog]\ntimeout = 5s\n"), "ini", &opts))
	assert.Equal(t, "mysql", opts.Driver)
	assert.Equal(t, "app_", opts.Prefix)
	assert.Equal(t, "map", opts.Catalog.Store)
	assert.Equal(t, 5*time.Second, opts.Catalog.Timeout)

	assert.Error(t, Decode([]byte("{}"), "hcl", &opts))
}

func TestSetDefaults(t *testing.T) {
	opts := appOptions{Prefix: "keep_", Extra: &catalogOptions{}}
	require.NoError(t, SetDefaults(&opts))
	assert.Equal(t, "keep_", opts.Prefix)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, "map", opts.Extra.Store)

	items := []*catalogOptions{{}, {Store: "redis"}}
	require.NoError(t, SetDefaults(&items))
	assert.Equal(t, "map", items[0].Store)
	assert.Equal(t, "redis", items[1].Store)

	assert.Error(t, SetDefaults(opts))
	assert.Error(t, SetDefaults(nil))

	var bad struct {
		N int `def:"many"`
	}
	assert.Error(t, SetDefaults(&bad))
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(nil))
	assert.NoError(t, ValidateStruct("text"))
	assert.NoError(t, ValidateStruct((*appOptions)(nil)))
	assert.Error(t, ValidateStruct(&appOptions{}))
	assert.NoError(t, ValidateStruct(&appOptions{Driver: "sqlite3", Catalog: catalogOptions{Store: "map"}}))
}

func TestWatcher(t *testing.T) {
	path := writeFile(t, "models.yaml", "driver: sqlite3\n")

	w, err := NewWatcher(path, log.Discard())
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan string, 8)
	w.OnChange(func(p string) error {
		changed <- p
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	// 等待监听 goroutine 启动
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("driver: mysql\n"), 0644))

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, p)
	case <-ctx.Done():
		t.Fatal("no change event received")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

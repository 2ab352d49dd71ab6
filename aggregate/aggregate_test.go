package aggregate_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/dbscope/aggregate"
	"github.com/syssam/dbscope/resource"
)

func fixtures() []*resource.Resource {
	skipped := resource.NewBuilder("table").
		Identity("name", "U").
		Build().
		WithPayload("CREATE TABLE U (id int)")
	kept := resource.NewBuilder("table").
		Identity("name", "T").
		Metadata("file_name", "T.sql").
		Build().
		WithPayload("CREATE TABLE T (...)")
	return []*resource.Resource{skipped, kept}
}

func TestFiles(t *testing.T) {
	files := aggregate.Files(fixtures())
	assert.Equal(t, map[string][]byte{"t.sql": []byte("CREATE TABLE T (...)")}, files)
	assert.Empty(t, aggregate.Files(nil))
}

func TestZip(t *testing.T) {
	res := append(fixtures(), resource.NewBuilder("view").
		Identity("name", "A").
		Metadata("file_name", "A.SQL").
		Build().
		WithPayload("CREATE VIEW A AS SELECT 1"))
	blob, err := aggregate.Zip{}.Aggregate(res)
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)
	require.Len(t, r.File, 2)
	assert.Equal(t, "a.sql", r.File[0].Name)
	assert.Equal(t, "t.sql", r.File[1].Name)

	f, err := r.File[1].Open()
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE T (...)", string(body))
}

func TestZipEmpty(t *testing.T) {
	blob, err := aggregate.Zip{}.Aggregate(nil)
	require.NoError(t, err)
	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)
	assert.Empty(t, r.File)
}

func TestMsgpack(t *testing.T) {
	blob, err := aggregate.Msgpack{}.Aggregate(fixtures())
	require.NoError(t, err)
	var files map[string][]byte
	require.NoError(t, msgpack.Unmarshal(blob, &files))
	assert.Equal(t, map[string][]byte{"t.sql": []byte("CREATE TABLE T (...)")}, files)
}

func TestForFormat(t *testing.T) {
	a, err := aggregate.ForFormat("ZIP")
	require.NoError(t, err)
	assert.Equal(t, aggregate.Zip{}, a)
	_, err = aggregate.ForFormat("tar")
	require.Error(t, err)
}

func TestFunc(t *testing.T) {
	a := aggregate.Func(func(rs []*resource.Resource) ([]byte, error) {
		return []byte{byte(len(rs))}, nil
	})
	out, err := a.Aggregate(fixtures())
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, out)
}

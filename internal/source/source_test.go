package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureFiles = map[string]string{
	"factors.csv": "component,loc,year,factor_kgCO2eq_unit,carbon_content\n" +
		"steel,world,2020,2.0,0\n" +
		"cotton,rer,2020,5.0,0.4\n",
	"additional_factors.csv": "name,unit,year,factor_kgCO2eq_unit\n" +
		"hgv transport,km,2020,0.1\n",
	"land_travel_distance.csv": "start_loc,end_loc,distance_km\n" +
		"sheffield (united kingdom),london (united kingdom),270\n",
	"sea_travel_distance.csv": "start_loc,end_loc,distance_km\n" +
		"shanghai (china),felixstowe (united kingdom),19500\n",
	"countries_europe.csv": "country\nfrance\nunited kingdom\n",
	"countries_other.csv":  "country\nchina\n",
	"decon_units.csv":      "name,unit,value\nhsdu electricity,kwh,10\nhsdu water,l,100\nhsdu gas,m3,1\n",
}

func writeFixtures(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
}

func TestLoadTables_LocalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, fixtureFiles)

	src, err := NewFiles(dir)
	require.NoError(t, err)

	ds, err := LoadTables(context.Background(), src, FileNames{})
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Tables.Factors.Len())
	assert.Equal(t, 1, ds.Tables.Additional.Len())
	assert.Equal(t, 1, ds.Tables.LandDistances.Len())
	assert.Equal(t, 1, ds.Tables.SeaDistances.Len())
	assert.Equal(t, 3, ds.Tables.Regions.Len())
	_, ok := ds.Tables.DeconUnits.Get("hsdu")
	assert.True(t, ok)
	assert.Empty(t, ds.Ports, "ports.csv is optional")
}

func TestLoadTables_WithPorts(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, fixtureFiles)
	writeFixtures(t, dir, map[string]string{
		"ports.csv": "port,latitude,longitude\nfelixstowe (united kingdom),51.96,1.35\n",
	})

	src, err := NewFiles(dir)
	require.NoError(t, err)

	ds, err := LoadTables(context.Background(), src, DefaultFileNames())
	require.NoError(t, err)
	require.Len(t, ds.Ports, 1)
}

func TestLoadTables_MissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	files := make(map[string]string, len(fixtureFiles))
	for k, v := range fixtureFiles {
		if k != "decon_units.csv" {
			files[k] = v
		}
	}
	writeFixtures(t, dir, files)

	src, err := NewFiles(dir)
	require.NoError(t, err)

	_, err = LoadTables(context.Background(), src, FileNames{})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "decon_units.csv")
}

func TestLoadTables_DuplicateFactor(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir, fixtureFiles)
	writeFixtures(t, dir, map[string]string{
		"factors.csv": "component,loc,year,factor_kgCO2eq_unit,carbon_content\n" +
			"steel,world,2020,2.0,0\nsteel,world,2020,2.5,0\n",
	})

	src, err := NewFiles(dir)
	require.NoError(t, err)

	_, err = LoadTables(context.Background(), src, FileNames{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing factors")
}

func TestFileNames_WithDefaults(t *testing.T) {
	n := FileNames{Factors: "custom.csv"}.WithDefaults()
	assert.Equal(t, "custom.csv", n.Factors)
	assert.Equal(t, "ports.csv", n.Ports)
}

type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(
	_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestS3_ReadFile(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{"tables/2024/factors.csv": "component\n"}}
	src := NewS3WithClient(fake, "carbon-data", "/tables/2024/")

	assert.Equal(t, "s3://carbon-data/tables/2024", src.Location())

	data, err := src.ReadFile(context.Background(), "factors.csv")
	require.NoError(t, err)
	assert.Equal(t, "component\n", string(data))
	assert.Equal(t, []string{"tables/2024/factors.csv"}, fake.keys)

	_, err = src.ReadFile(context.Background(), "ports.csv")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSplitS3(t *testing.T) {
	bucket, prefix, err := splitS3("s3://bucket/a/b")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "a/b", prefix)

	bucket, prefix, err = splitS3("s3://bucket")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Empty(t, prefix)

	_, _, err = splitS3("s3://")
	require.ErrorIs(t, err, ErrInvalidS3Location)
}

func TestOpen_LocalPath(t *testing.T) {
	dir := t.TempDir()
	src, err := Open(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, dir, src.Location())
}

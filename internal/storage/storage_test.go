package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/fleet-allocation/internal/models"
)

func sampleRiders() []models.Rider {
	return []models.Rider{
		{ID: "1", Name: "Arjun", Coordinates: models.Coord{Lat: 12.93, Lng: 77.62}, Categories: []models.Category{"food"}, Status: models.RiderAvailable},
		{ID: "2", Name: "Priya", Coordinates: models.Coord{Lat: 12.97, Lng: 77.64}, Categories: []models.Category{"taxi"}, Status: models.RiderBusy},
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	riders := sampleRiders()
	require.NoError(t, m.SaveRiders(ctx, riders))
	riders[0].Categories[0] = "taxi"

	got, err := m.LoadRiders(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Category("food"), got[0].Categories[0])

	got[1].Status = models.RiderOffline
	again, err := m.LoadRiders(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RiderBusy, again[1].Status)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	riders, err := fs.LoadRiders(ctx)
	require.NoError(t, err)
	assert.Empty(t, riders)

	require.NoError(t, fs.SaveRiders(ctx, sampleRiders()))
	got, err := fs.LoadRiders(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRiders(), got)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tasks := []models.Task{{ID: "task_1", Platform: "Zomato", Category: "food", Status: models.TaskPending, CreatedAt: created}}
	require.NoError(t, fs.SaveTasks(ctx, tasks))
	gotTasks, err := fs.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, gotTasks, 1)
	assert.True(t, created.Equal(gotTasks[0].CreatedAt))
	assert.Nil(t, gotTasks[0].DeliveredAt)

	_, err = os.Stat(filepath.Join(dir, "riders.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tasks.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

// objectBucket is an in-memory stand-in for the S3 client.
type objectBucket struct {
	objects map[string][]byte
	meta    map[string]map[string]string
}

func (b *objectBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	doc, ok := b.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(doc))}, nil
}

func (b *objectBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	doc, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	b.objects[aws.ToString(in.Key)] = doc
	b.meta[aws.ToString(in.Key)] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func TestS3DocumentsLayout(t *testing.T) {
	ctx := context.Background()
	bucket := &objectBucket{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
	backend := NewJSONBackend(&S3Documents{api: bucket, bucket: "fleet-data", prefix: "fleet/"})

	riders, err := backend.LoadRiders(ctx)
	require.NoError(t, err)
	assert.Empty(t, riders)

	require.NoError(t, backend.SaveRiders(ctx, sampleRiders()))
	require.Contains(t, bucket.objects, "fleet/riders.json")
	assert.Equal(t, "riders", bucket.meta["fleet/riders.json"]["fleet-collection"])

	got, err := backend.LoadRiders(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRiders(), got)
}

func TestJSONBackendCorruptDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "riders.json"), []byte("{not json"), 0o644))
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = fs.LoadRiders(ctx)
	assert.Error(t, err)
}

type failingDocs struct{}

func (failingDocs) Fetch(context.Context, Collection) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingDocs) Put(context.Context, Collection, []byte) error     { return errors.New("disk gone") }

func TestJSONBackendPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	b := NewJSONBackend(failingDocs{})
	_, err := b.LoadTasks(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, b.SaveTasks(ctx, nil))
}

const seedYAML = `
riders:
  - id: "1"
    name: Arjun Kumar
    location_label: Koramangala, Bangalore
    lat: 12.9352
    lng: 77.6245
    categories: [food_delivery, grocery]
    rating: 4.8
  - id: "5"
    name: Mohammed Ali
    lat: 12.9089
    lng: 77.5831
    categories: [bike_taxi]
    status: offline
`

func TestParseSeed(t *testing.T) {
	riders, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, riders, 2)
	assert.Equal(t, models.RiderAvailable, riders[0].Status)
	assert.Equal(t, []models.Category{models.CategoryFood, models.CategoryGrocery}, riders[0].Categories)
	assert.Equal(t, models.Coord{Lat: 12.9352, Lng: 77.6245}, riders[0].Coordinates)
	assert.Equal(t, models.RiderOffline, riders[1].Status)
	assert.Equal(t, []models.Category{models.CategoryTaxi}, riders[1].Categories)

	_, err = ParseSeed([]byte("riders:\n  - name: nobody\n"))
	assert.Error(t, err)
	_, err = ParseSeed([]byte("riders:\n  - id: x\n    status: sleeping\n"))
	assert.Error(t, err)
}

func TestSeedRidersOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	applied, err := SeedRiders(ctx, m, sampleRiders())
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = SeedRiders(ctx, m, []models.Rider{{ID: "9"}})
	require.NoError(t, err)
	assert.False(t, applied)
	got, _ := m.LoadRiders(ctx)
	assert.Len(t, got, 2)
}

func TestOpenUnknownKind(t *testing.T) {
	_, _, err := Open(context.Background(), Options{Kind: "floppy"})
	assert.Error(t, err)

	b, closer, err := Open(context.Background(), Options{Kind: "file", DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.NoError(t, closer.Close())
}

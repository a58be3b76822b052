package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/robert-malhotra/landsat-lst/internal/sampling"
)

var vars = []string{"CELSIUS", "NDVI", "NDWI", "MNDWI_SW1", "MNDWI_SW2"}

func TestWriteCSV(t *testing.T) {
	records := []sampling.Record{
		{ID: 3, Longitude: -122.5, Latitude: 49.1, Time: 1583708400000, Values: []float64{21.4, 0.62, 0.15, -0.3, -0.1}},
		{ID: 4, Longitude: -122.5, Latitude: 49.1, Time: 1585090800000, Values: []float64{math.NaN(), 0.5, 0, 0, 0}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, vars, records); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	want := "id,longitude,latitude,time,CELSIUS,NDVI,NDWI,MNDWI_SW1,MNDWI_SW2\n" +
		"3,-122.5,49.1,1583708400000,21.4,0.62,0.15,-0.3,-0.1\n" +
		"4,-122.5,49.1,1585090800000,,0.5,0,0,0\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_Mismatch(t *testing.T) {
	records := []sampling.Record{{ID: 1, Values: []float64{1}}}
	err := WriteCSV(io.Discard, vars, records)
	if !errors.Is(err, sampling.ErrCardinalityMismatch) {
		t.Errorf("WriteCSV() error = %v, want ErrCardinalityMismatch", err)
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	series := []sampling.SeriesPoint{
		{SceneID: "LC08_047026_20200308", Time: time.UnixMilli(1583708400000), Value: 0.62},
	}

	var buf bytes.Buffer
	if err := WriteSeriesCSV(&buf, "NDVI", series); err != nil {
		t.Fatalf("WriteSeriesCSV() error: %v", err)
	}
	want := "scene,time,date,NDVI\nLC08_047026_20200308,1583708400000,2020-03-08,0.62\n"
	if buf.String() != want {
		t.Errorf("WriteSeriesCSV() = %q, want %q", buf.String(), want)
	}
}

func TestTable_FileSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	records := []sampling.Record{
		{ID: 0, Longitude: 1, Latitude: 2, Time: 3, Values: []float64{4, 5, 6, 7, 8}},
	}
	if err := Table(context.Background(), sink, "Micromet_GEE", "bb2_spatial_indices_2021", vars, records); err != nil {
		t.Fatalf("Table() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Micromet_GEE", "bb2_spatial_indices_2021.csv"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[1] != "0,1,2,3,4,5,6,7,8" {
		t.Errorf("export contents = %q", string(data))
	}
}

func TestTable_EmptyRecordsWritesHeader(t *testing.T) {
	dir := t.TempDir()
	if err := Table(context.Background(), NewFileSink(dir), "out", "empty", vars, nil); err != nil {
		t.Fatalf("Table() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "empty.csv"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if string(data) != "id,longitude,latitude,time,CELSIUS,NDVI,NDWI,MNDWI_SW1,MNDWI_SW2\n" {
		t.Errorf("export contents = %q, want header only", string(data))
	}
}

func TestTable_FileSinkFailure(t *testing.T) {
	// A regular file where the folder should be makes MkdirAll fail.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Table(context.Background(), NewFileSink(dir), "blocked", "out", vars, nil)
	if !errors.Is(err, ErrExternal) {
		t.Errorf("Table() error = %v, want ErrExternal", err)
	}
}

func TestFileSink_RejectsTraversal(t *testing.T) {
	_, err := NewFileSink(t.TempDir()).Create(context.Background(), "../escape", "x.csv")
	if !errors.Is(err, ErrExternal) {
		t.Errorf("Create() error = %v, want ErrExternal", err)
	}
}

type fakeUploader struct {
	mu      sync.Mutex
	bucket  string
	key     string
	body    []byte
	failErr error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucket = aws.ToString(input.Bucket)
	f.key = aws.ToString(input.Key)
	f.body = data
	return &manager.UploadOutput{Key: input.Key}, nil
}

func TestTable_S3Sink(t *testing.T) {
	up := &fakeUploader{}
	sink := NewS3SinkWithUploader("exports", "/lst/", up)

	if err := Table(context.Background(), sink, "Micromet_GEE", "bb2", vars, nil); err != nil {
		t.Fatalf("Table() error: %v", err)
	}

	up.mu.Lock()
	defer up.mu.Unlock()
	if up.bucket != "exports" || up.key != "lst/Micromet_GEE/bb2.csv" {
		t.Errorf("uploaded to %s/%s, want exports/lst/Micromet_GEE/bb2.csv", up.bucket, up.key)
	}
	if !strings.HasPrefix(string(up.body), "id,longitude,latitude,time,CELSIUS") {
		t.Errorf("uploaded body = %q", string(up.body))
	}
}

func TestTable_S3Failure(t *testing.T) {
	up := &fakeUploader{failErr: errors.New("access denied")}
	sink := NewS3SinkWithUploader("exports", "", up)

	err := Table(context.Background(), sink, "Micromet_GEE", "bb2", vars, nil)
	if !errors.Is(err, ErrExternal) {
		t.Errorf("Table() error = %v, want ErrExternal", err)
	}
}

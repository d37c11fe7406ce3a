package dataset

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
)

const folderTemplate = "Client_%s_RF"

type decoder func(ctx context.Context, path string, cols Columns) ([]Record, error)

var decoders = map[string]decoder{
	".csv":     readCSV,
	".parquet": readParquet,
}

type Loader struct {
	DataDir string
	Columns Columns
	logger  *slog.Logger
}

func NewLoader(dataDir string, cols Columns, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		DataDir: dataDir,
		Columns: cols,
		logger:  logger,
	}
}

// Folder returns the dataset folder of a client, defaulting to Client_<id>_RF.
func Folder(clientID, folder string) string {
	if folder != "" {
		return folder
	}

	return fmt.Sprintf(folderTemplate, clientID)
}

// Load reads the single tabular file under DataDir/folder and returns its
// records in strictly increasing timestamp order.
func (l *Loader) Load(ctx context.Context, clientID, folder string) ([]Record, error) {
	dir := filepath.Join(l.DataDir, Folder(clientID, folder))

	path, err := locate(dir)
	if err != nil {
		return nil, err
	}

	decode := decoders[strings.ToLower(filepath.Ext(path))]
	records, err := decode(ctx, path, l.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Equal(records[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: %s", errDuplicateTime, records[i].Timestamp)
		}
	}

	l.logger.Info("dataset loaded",
		slog.String("client_id", clientID),
		slog.String("path", path),
		slog.Int("records", len(records)),
	)

	return records, nil
}

func locate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", pkgerrors.ErrDatasetNotFound, dir)
		}

		return "", fmt.Errorf("failed to list dataset folder: %w", err)
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := decoders[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			matches = append(matches, filepath.Join(dir, e.Name()))
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no .csv or .parquet file in %s", pkgerrors.ErrDatasetNotFound, dir)
	case 1:
		return matches[0], nil
	default:
		slices.SortFunc(matches, cmp.Compare[string])

		return "", fmt.Errorf("%w: %s", ErrAmbiguousDataset, strings.Join(matches, ", "))
	}
}

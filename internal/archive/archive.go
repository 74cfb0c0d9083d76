// Package archive persists graph snapshots to S3-compatible object storage.
//
// The graph store write is a non-transactional delete-then-recreate, so a
// snapshot of every graph handed to the writer is kept as a recovery trail.
// Archiving is best effort: the engine logs a failed Put and moves on.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/koustreak/DatLas/internal/errs"
	"github.com/koustreak/DatLas/internal/kg"
	"github.com/koustreak/DatLas/internal/logger"
)

// Config carries object-storage connection settings.
type Config struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// MinIO implements kg.SnapshotArchive on a MinIO (or any S3-compatible)
// server. Safe for concurrent use.
type MinIO struct {
	client *miniogo.Client
	bucket string
	log    *logger.Logger
	now    func() time.Time
}

var _ kg.SnapshotArchive = (*MinIO)(nil)

// New connects to the object store and ensures the snapshot bucket exists.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*MinIO, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.SubsystemArchive, errs.ErrKindConnectionFailed, "create object store client", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapError("check snapshot bucket", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, mapError("create snapshot bucket", err)
		}
	}

	return &MinIO{client: client, bucket: cfg.Bucket, log: log, now: time.Now}, nil
}

// Put writes one graph snapshot as JSON under
// snapshots/<database>/<timestamp>.json. Old snapshots are never overwritten
// or pruned here; retention is the bucket's lifecycle policy's job.
func (m *MinIO) Put(ctx context.Context, database string, g *kg.Graph) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return errs.Wrap(errs.SubsystemArchive, errs.ErrKindInvalidInput, "marshal graph snapshot", err)
	}

	key := "snapshots/" + database + "/" + m.now().UTC().Format(time.RFC3339) + ".json"
	_, err = m.client.PutObject(ctx, m.bucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		miniogo.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return mapError("put snapshot "+key, err)
	}

	m.log.With().
		Str("database", database).
		Str("key", key).
		Int("bytes", len(payload)).
		Logger().
		Debug("snapshot archived")
	return nil
}

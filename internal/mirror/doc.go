// Package mirror publishes downloaded files to object storage.
//
// Buckets are addressed by gocloud.dev URLs (s3://, gs://, mem://), so the
// same code path serves S3, GCS, and in-memory test buckets. A mirror pass
// is strictly one-way: local files are read and uploaded, never modified.
package mirror

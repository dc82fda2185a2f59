// Package source acquires MetaNetX dump files completely into memory.
//
// A location is either a local path, read through a filesystem provider, or
// an s3://bucket/key URI fetched with the AWS SDK. Every acquired input is
// fingerprinted so a run can record exactly which bytes it consumed.
//
// The S3 client honours the default AWS credential chain plus:
//
//	MNXNORM_S3_REGION     region (default: AWS_REGION, then us-east-1)
//	MNXNORM_S3_ENDPOINT   custom endpoint, e.g. MinIO
//	MNXNORM_S3_PATH_STYLE true to force path-style addressing
package source

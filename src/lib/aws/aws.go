// Package aws holds the AWS backed transports: S3 assets, SES mail, SQS and
// SNS messaging.
package aws

import "errors"

var (
	errS3Unavailable  = errors.New("s3 client unavailable")
	errSESUnavailable = errors.New("ses client unavailable")
	errSQSUnavailable = errors.New("sqs client unavailable")
	errSNSUnavailable = errors.New("sns client unavailable")
)

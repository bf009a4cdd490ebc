package aws

import (
	"bytes"
	"context"
	"log"
	"os"
	"storefront/src/lib"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const PRESIGN_TTL = time.Hour

func AssetsBucket() string {
	return os.Getenv("S3_ASSETS_BUCKET")
}

// S3UploadAsset stores body under name in the assets bucket and returns a
// presigned download URL valid for PRESIGN_TTL.
func S3UploadAsset(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	assetsBucket := AssetsBucket()
	client := lib.AWSGetS3Client()
	if client == nil {
		return "", errS3Unavailable
	}
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(assetsBucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return "", err
	}
	err = s3.NewObjectExistsWaiter(client).Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(assetsBucket),
		Key:    aws.String(name),
	}, time.Minute)
	if err != nil {
		log.Printf("Failed attempt to wait for object %s to exist: %s\n", name, err.Error())
		return "", err
	}
	log.Printf("Added object '%s' to bucket '%s'", name, assetsBucket)
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(assetsBucket),
		Key:    aws.String(name),
	}, func(po *s3.PresignOptions) {
		po.Expires = PRESIGN_TTL
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", name, err.Error())
		return "", err
	}
	return r.URL, nil
}

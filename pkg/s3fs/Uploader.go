// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Uploader buffers writes to an object.
// Small objects are written with a single PutObject when closed,
// while objects larger than the part size are written as a multipart upload.
type Uploader struct {
	ctx context.Context
	//
	acl              types.ObjectCannedACL
	client           Client
	bucket           *string
	bucketKeyEnabled *bool
	key              *string
	partSize         int
	//
	buffer         *bytes.Buffer
	uploadID       *string
	lastPartNumber int32
	etags          map[int32]*string
	closed         bool
}

func (u *Uploader) uploadPart() error {
	// a reader over the bytes lets the client rewind the body on retries
	reader := bytes.NewReader(u.buffer.Bytes())
	partNumber := u.lastPartNumber + 1
	uploadPartOutput, err := u.client.UploadPart(u.ctx, &s3.UploadPartInput{
		Body:          reader,
		Bucket:        u.bucket,
		Key:           u.key,
		PartNumber:    aws.Int32(partNumber),
		UploadId:      u.uploadID,
		ContentLength: aws.Int64(int64(reader.Len())),
	})
	if err != nil {
		return fmt.Errorf("error uploading part %d of %q: %w", partNumber, aws.ToString(u.key), err)
	}

	// save etag
	u.etags[partNumber] = uploadPartOutput.ETag

	// increment part number
	u.lastPartNumber = partNumber

	// reset buffer
	u.buffer = bytes.NewBuffer([]byte{})

	return nil
}

func (u *Uploader) Close() error {
	if u.closed {
		return io.ErrUnexpectedEOF
	}

	u.closed = true

	// if upload hasn't started.
	if u.uploadID == nil {
		reader := bytes.NewReader(u.buffer.Bytes())
		_, err := u.client.PutObject(u.ctx, &s3.PutObjectInput{
			ACL:              u.acl,
			Body:             reader,
			Bucket:           u.bucket,
			BucketKeyEnabled: u.bucketKeyEnabled,
			ContentLength:    aws.Int64(int64(reader.Len())),
			Key:              u.key,
		})
		if err != nil {
			return fmt.Errorf("error putting object %q: %w", aws.ToString(u.key), err)
		}
		u.buffer = bytes.NewBuffer([]byte{})
		return nil
	}

	// upload remaining bytes
	if u.buffer.Len() > 0 {
		if err := u.uploadPart(); err != nil {
			return err
		}
	}

	// build list of completed parts
	completedParts := []types.CompletedPart{}
	for i := int32(1); i <= u.lastPartNumber; i++ {
		completedParts = append(completedParts, types.CompletedPart{
			ETag:       u.etags[i],
			PartNumber: aws.Int32(i),
		})
	}

	// complete multipart upload
	_, err := u.client.CompleteMultipartUpload(u.ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   u.bucket,
		Key:      u.key,
		UploadId: u.uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completedParts,
		},
	})
	if err != nil {
		return fmt.Errorf("error completing multipart upload of %q: %w", aws.ToString(u.key), err)
	}
	return nil
}

func (u *Uploader) Write(p []byte) (int, error) {
	if u.closed {
		return 0, io.ErrUnexpectedEOF
	}

	// write to internal buffer
	n, err := u.buffer.Write(p)
	if err != nil {
		return 0, err
	}

	// check if buffer is greater than part size
	if u.partSize > 0 && u.buffer.Len() >= u.partSize {

		// If multipart upload hasn't been started yet, then create it.
		if u.uploadID == nil {
			createMultipartUploadOutput, err := u.client.CreateMultipartUpload(u.ctx, &s3.CreateMultipartUploadInput{
				ACL:              u.acl,
				Bucket:           u.bucket,
				BucketKeyEnabled: u.bucketKeyEnabled,
				Key:              u.key,
			})
			if err != nil {
				return 0, fmt.Errorf("error creating multipart upload of %q: %w", aws.ToString(u.key), err)
			}
			u.uploadID = createMultipartUploadOutput.UploadId
		}

		if err := u.uploadPart(); err != nil {
			return 0, err
		}
	}

	// return number of bytes written
	return n, nil
}

type UploaderInput struct {
	ACL              types.ObjectCannedACL
	Client           Client
	Bucket           string
	BucketKeyEnabled bool
	Key              string
	// PartSize is the size of the buffer that starts a multipart upload.
	// Zero or less writes the object with a single PutObject.
	PartSize int
}

func NewUploader(ctx context.Context, input *UploaderInput) *Uploader {
	var bucketKeyEnabled *bool
	if input.BucketKeyEnabled {
		bucketKeyEnabled = aws.Bool(true)
	}
	return &Uploader{
		ctx: ctx,
		//
		acl:              input.ACL,
		client:           input.Client,
		bucket:           aws.String(input.Bucket),
		bucketKeyEnabled: bucketKeyEnabled,
		key:              aws.String(input.Key),
		partSize:         input.PartSize,
		//
		buffer:         bytes.NewBuffer([]byte{}),
		uploadID:       nil,
		lastPartNumber: int32(0),
		etags:          map[int32]*string{},
		closed:         false,
	}
}

package modal

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// blobHTTPClient is shared across every blob upload/download; the teacher's
// agent package builds one shared *http.Client per process rather than one
// per call for the same reason (connection reuse).
var blobHTTPClient = &http.Client{}

// uploadBlob offloads a CBOR-encoded payload larger than cborBlobThreshold
// to blob storage: BlobCreate to mint an upload URL, then a single-part
// HTTPS PUT with a Content-MD5 integrity header. Multipart upload is an
// explicitly unsupported path — the server offering one is treated as a
// fatal configuration error rather than something to transparently handle.
func uploadBlob(ctx context.Context, client pb.ModalClient, data []byte) (string, error) {
	md5Sum := md5.Sum(data)
	sha256Sum := sha256.Sum256(data)

	resp, err := client.BlobCreate(ctx, &pb.BlobCreateRequest{
		ContentMd5:          base64.StdEncoding.EncodeToString(md5Sum[:]),
		ContentSha256Base64: base64.StdEncoding.EncodeToString(sha256Sum[:]),
		ContentLength:       int64(len(data)),
	})
	if err != nil {
		return "", classifyGRPCError(err)
	}

	if resp.MultipartUpload != nil {
		return "", InvalidArgumentError("blob upload requires multipart upload, which this client does not support")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, resp.UploadUrl, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-MD5", base64.StdEncoding.EncodeToString(md5Sum[:]))
	req.ContentLength = int64(len(data))

	httpResp, err := blobHTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(httpResp.Body)
		return "", RequestSizeError(fmt.Sprintf("blob upload failed with status %d: %s", httpResp.StatusCode, body))
	}

	return resp.BlobId, nil
}

// downloadBlob fetches a blob's content by id via BlobGet followed by a
// plain HTTPS GET of the returned download URL.
func downloadBlob(ctx context.Context, client pb.ModalClient, blobID string) ([]byte, error) {
	resp, err := client.BlobGet(ctx, &pb.BlobGetRequest{BlobId: blobID})
	if err != nil {
		return nil, classifyGRPCError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resp.DownloadUrl, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := blobHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode/100 != 2 {
		return nil, RequestSizeError(fmt.Sprintf("blob download failed with status %d", httpResp.StatusCode))
	}

	return io.ReadAll(httpResp.Body)
}

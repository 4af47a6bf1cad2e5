package webapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/service/fetcher"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/tidwall/gjson"
)

const uploaderComponent = "webapp.uploader"

const uploadContentType = "application/octet-stream"

// UploadCredential 오브젝트 하나를 업로드하기 위한 임시 자격 증명입니다. 캐시하거나 저장하지 않습니다.
type UploadCredential struct {
	ObjectKey       string
	AccessKeyID     string
	AccessKeySecret string
	SecurityToken   string
	Bucket          string
	Endpoint        string
}

// Uploader 임시 자격 증명으로 서명한 PUT 요청을 보내 오브젝트 스토리지에 직접 업로드합니다.
type Uploader struct {
	api     *apiClient
	storage fetcher.Fetcher
	timeout time.Duration

	// scheme 스토리지 엔드포인트의 URL 스킴입니다.
	scheme string
	now    func() time.Time
}

func newUploader(api *apiClient, storage fetcher.Fetcher, timeout time.Duration) *Uploader {
	return &Uploader{
		api:     api,
		storage: storage,
		timeout: timeout,
		scheme:  "https",
		now:     time.Now,
	}
}

// Upload 데이터를 업로드하고 오브젝트의 URL을 반환합니다. 재시도하지 않습니다.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	cred, err := u.requestCredential(ctx, filename, apiKey)
	if err != nil {
		return "", err
	}

	objectURL := fmt.Sprintf("%s://%s.%s/%s", u.scheme, cred.Bucket, cred.Endpoint, cred.ObjectKey)
	date := u.now().UTC().Format(http.TimeFormat)

	header := make(http.Header)
	header.Set("Date", date)
	header.Set("Content-Type", uploadContentType)
	header.Set("x-oss-security-token", cred.SecurityToken)
	header.Set("Authorization", fmt.Sprintf("OSS %s:%s", cred.AccessKeyID, signOSSRequest(cred, uploadContentType, date)))

	resp, err := fetcher.Do(ctx, u.storage, http.MethodPut, objectURL, header, bytes.NewReader(data))
	if err != nil {
		return "", newErrUploadFailed(err, filename)
	}
	body, err := fetcher.ReadAll(resp)
	if err != nil {
		return "", newErrUploadFailed(err, filename)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", newErrUploadRejected(resp.StatusCode, (&apiResponse{Body: body}).snippet())
	}

	applog.WithComponentAndFields(uploaderComponent, applog.Fields{
		"file_name": filename,
		"bucket":    cred.Bucket,
		"size":      len(data),
	}).Debug("입력 파일 업로드 완료")

	return objectURL, nil
}

// requestCredential HTTP 200이면서 code가 20000인 응답만 유효한 자격 증명으로 인정합니다.
func (u *Uploader) requestCredential(ctx context.Context, filename, apiKey string) (*UploadCredential, error) {
	resp, err := u.api.call(ctx, http.MethodGet, pathUploadToken, url.Values{"file_name": []string{filename}}, bearerHeader(apiKey), nil)
	if err != nil {
		return nil, newErrCredentialRequestFailed(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newErrCredentialRejected(resp.StatusCode, resp.snippet())
	}

	body := gjson.ParseBytes(resp.Body)
	if body.Get("code").Int() != successCode {
		return nil, newErrCredentialErrorCode(body.Get("message").String())
	}

	file := body.Get("data.file")
	storage := body.Get("data.storage")
	cred := &UploadCredential{
		ObjectKey:       file.Get("object_key").String(),
		AccessKeyID:     file.Get("access_key_id").String(),
		AccessKeySecret: file.Get("access_key_secret").String(),
		SecurityToken:   file.Get("security_token").String(),
		Bucket:          storage.Get("bucket").String(),
		Endpoint:        storage.Get("endpoint").String(),
	}

	for field, v := range map[string]string{
		"object_key":        cred.ObjectKey,
		"access_key_id":     cred.AccessKeyID,
		"access_key_secret": cred.AccessKeySecret,
		"bucket":            cred.Bucket,
		"endpoint":          cred.Endpoint,
	} {
		if v == "" {
			return nil, newErrCredentialIncomplete(field)
		}
	}

	return cred, nil
}

// signOSSRequest OSS V1 서명(HMAC-SHA1, Base64)을 계산합니다.
func signOSSRequest(cred *UploadCredential, contentType, date string) string {
	canonical := fmt.Sprintf("PUT\n\n%s\n%s\nx-oss-security-token:%s\n/%s/%s",
		contentType, date, cred.SecurityToken, cred.Bucket, cred.ObjectKey)

	mac := hmac.New(sha1.New, []byte(cred.AccessKeySecret))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Package fileutil 파일 시스템 작업을 위한 유틸리티를 제공합니다.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// tempFilePattern 원자적 쓰기 중 생성되는 임시 파일의 이름 패턴입니다.
const tempFilePattern = ".atomic-*.tmp"

// WriteFileAtomic 데이터를 파일에 원자적으로 저장합니다.
//
// 같은 디렉토리에 임시 파일을 만들어 기록하고 fsync한 뒤 최종 경로로 이름을 변경하므로,
// 저장 도중 프로세스가 종료되어도 기존 파일은 완전한 이전 내용을 유지합니다.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("디렉토리 생성 실패: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("임시 파일 생성 실패: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 열린 파일을 삭제할 수 없으므로 Close가 Remove보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("파일 쓰기 실패: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("파일 권한 설정 실패: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("디스크 동기화 실패: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("파일 닫기 실패: %w", err)
	}

	if err := renameWithRetry(tmpPath, filename); err != nil {
		return fmt.Errorf("파일 이름 변경 실패: %w", err)
	}

	// 디렉토리 엔트리 동기화는 실패해도 치명적이지 않습니다.
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 백신이나 인덱서가 파일을 잠시 점유하는 Windows 환경을 위해 짧게 재시도합니다.
func renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		err := os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}

		lastErr = err
		time.Sleep(retryDelay)
	}

	return lastErr
}

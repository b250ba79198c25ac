package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-telegram/bot"

	"github.com/set-night/lexmind/internal/config"
)

var downloadClient = &http.Client{Timeout: config.ScraperHTTPTimeout}

// DownloadFile fetches a Telegram file by id. Files above maxSize bytes are
// refused before download when Telegram reports the size.
func DownloadFile(ctx context.Context, b *bot.Bot, fileID string, maxSize int64) ([]byte, string, error) {
	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	if maxSize > 0 && file.FileSize > maxSize {
		return nil, "", fmt.Errorf("file is %d bytes, limit is %d", file.FileSize, maxSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.FileDownloadLink(file), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	r := io.Reader(resp.Body)
	if maxSize > 0 {
		r = io.LimitReader(resp.Body, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read file data: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxSize)
	}
	return data, file.FilePath, nil
}

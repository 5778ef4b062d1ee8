package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ServerChan 微信推送通道（Server 酱风格 webhook）。
// 接口返回 JSON，code 非 0 视为发送失败。

type ServerChan struct {
	APIURL string
	Client *http.Client
}

func NewServerChan(apiURL string) *ServerChan {
	return &ServerChan{APIURL: apiURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *ServerChan) SendText(text string) error {
	if strings.TrimSpace(s.APIURL) == "" {
		return fmt.Errorf("ServerChan 配置不完整")
	}
	title := text
	desp := ""
	if idx := strings.Index(text, "\n"); idx > 0 {
		title = text[:idx]
		desp = text[idx+1:]
	}
	form := url.Values{}
	form.Set("title", title)
	form.Set("desp", desp)

	resp, err := s.Client.PostForm(s.APIURL, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("serverchan status=%d", resp.StatusCode)
	}
	if gjson.ValidBytes(body) {
		if code := gjson.GetBytes(body, "code"); code.Exists() && code.Int() != 0 {
			return fmt.Errorf("serverchan code=%d message=%s", code.Int(), gjson.GetBytes(body, "message").String())
		}
	}
	return nil
}

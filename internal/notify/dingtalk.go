package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
	"github.com/wz-hub/a-stock-scanner/pkg/httputil"
)

// DingTalk posts markdown to a group robot webhook
type DingTalk struct {
	client  *httputil.Client
	webhook string
}

func NewDingTalk(hc *httputil.Client, webhook string) *DingTalk {
	return &DingTalk{client: hc, webhook: webhook}
}

func (d *DingTalk) Channel() string { return config.PlatformDingTalk }

type dingTalkMarkdown struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

type dingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (d *DingTalk) Send(ctx context.Context, msg Message) error {
	payload := dingTalkMarkdown{MsgType: "markdown"}
	payload.Markdown.Title = msg.Title
	payload.Markdown.Text = msg.Markdown

	resp, err := d.client.PostJSON(ctx, d.webhook, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// the robot answers 200 with an errcode
	var out dingTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode dingtalk response: %w", err)
	}
	if out.ErrCode != 0 {
		return fmt.Errorf("dingtalk errcode %d: %s", out.ErrCode, out.ErrMsg)
	}
	return nil
}

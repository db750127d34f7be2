package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// A-share boards: SZ main, SZ ChiNext, SH main, SH STAR, BJ
const listFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"

type listData struct {
	Total int        `json:"total"`
	Diff  []listItem `json:"diff"`
}

type listItem struct {
	Code   string          `json:"f12"`
	Name   string          `json:"f14"`
	Listed json.RawMessage `json:"f26"`
}

// FetchInstrumentList pages through the full A-share listing
func (c *Client) FetchInstrumentList(ctx context.Context) ([]contracts.Instrument, error) {
	var out []contracts.Instrument
	seen := make(map[string]bool)

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("pn", strconv.Itoa(page))
		params.Set("pz", strconv.Itoa(c.pageSize))
		params.Set("po", "1")
		params.Set("np", "1")
		params.Set("fltt", "2")
		params.Set("invt", "2")
		params.Set("fid", "f12")
		params.Set("fs", listFilter)
		params.Set("fields", "f12,f14,f26")

		var resp envelope[listData]
		if err := c.getJSON(ctx, "instrument_list", c.listURL, params, &resp); err != nil {
			return nil, err
		}
		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}

		for _, item := range resp.Data.Diff {
			code := strings.TrimSpace(item.Code)
			if len(code) != 6 || seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, contracts.Instrument{
				Code:       code,
				Name:       strings.TrimSpace(item.Name),
				Market:     contracts.MarketOf(code),
				ListedDate: parseListedDate(item.Listed),
			})
		}

		if page*c.pageSize >= resp.Data.Total {
			break
		}
	}

	c.logger.WithField("count", len(out)).Info("Fetched instrument list")
	return out, nil
}

// parseListedDate accepts 19910403, "19910403" or "-"
func parseListedDate(raw json.RawMessage) *time.Time {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if len(s) != 8 {
		return nil
	}
	d, err := contracts.ParseDate(fmt.Sprintf("%s-%s-%s", s[0:4], s[4:6], s[6:8]))
	if err != nil {
		return nil
	}
	return &d
}

package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

// klineData is the data block of stock/kline/get
type klineData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"`
}

// SecID returns the market-prefixed id ("1.600000", "0.000001")
func SecID(code string) string {
	if contracts.MarketOf(code) == contracts.MarketShanghai {
		return "1." + code
	}
	return "0." + code
}

// adjustFlag maps the configured adjustment to the fqt parameter
func adjustFlag(adjust string) string {
	switch adjust {
	case "qfq":
		return "1"
	case "hfq":
		return "2"
	default:
		return "0"
	}
}

// FetchDailyBars fetches daily bars for code within r, oldest first
func (c *Client) FetchDailyBars(ctx context.Context, code string, r contracts.DateRange) ([]contracts.PriceBar, error) {
	if r.Empty() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("secid", SecID(code))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57")
	params.Set("klt", "101")
	params.Set("fqt", adjustFlag(c.adjust))
	params.Set("beg", r.From.Format("20060102"))
	params.Set("end", r.To.Format("20060102"))

	var resp envelope[klineData]
	if err := c.getJSON(ctx, code, c.klineURL, params, &resp); err != nil {
		return nil, err
	}

	// unknown codes and empty ranges come back with data = null
	if resp.Data == nil {
		return nil, nil
	}

	bars, err := parseKlines(code, resp.Data.Klines)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"instrument_code": code,
		"range":           r.String(),
		"count":           len(bars),
	}).Debug("Fetched daily bars")

	return bars, nil
}

// parseKlines parses "date,open,close,high,low,volume,amount" rows
func parseKlines(code string, rows []string) ([]contracts.PriceBar, error) {
	bars := make([]contracts.PriceBar, 0, len(rows))
	for i, row := range rows {
		fields := strings.Split(row, ",")
		if len(fields) < 7 {
			return nil, &contracts.DataIntegrityError{
				Code:   code,
				Reason: fmt.Sprintf("row %d has %d fields, want 7", i, len(fields)),
			}
		}

		date, err := contracts.ParseDate(fields[0])
		if err != nil {
			return nil, &contracts.DataIntegrityError{Code: code, Reason: fmt.Sprintf("row %d: %v", i, err)}
		}

		var nums [6]float64
		for j := 0; j < 6; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[j+1]), 64)
			if err != nil {
				return nil, &contracts.DataIntegrityError{
					Code:   code,
					Reason: fmt.Sprintf("row %d field %d: %q is not a number", i, j+1, fields[j+1]),
				}
			}
			nums[j] = v
		}

		bars = append(bars, contracts.PriceBar{
			InstrumentCode: code,
			TradingDate:    date,
			Open:           nums[0],
			Close:          nums[1],
			High:           nums[2],
			Low:            nums[3],
			Volume:         nums[4],
			Amount:         nums[5],
		})
	}
	return bars, nil
}

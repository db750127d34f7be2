package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wz-hub/a-stock-scanner/pkg/httputil"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
	"github.com/wz-hub/a-stock-scanner/pkg/retry"
)

// Example demonstrates a retrying JSON GET
func Example() {
	client := httputil.NewWithTimeout(logger.Nop(), 10*time.Second).
		WithRetry(retry.Policy{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond, MaxDelay: time.Second})

	var payload map[string]interface{}
	if err := client.GetJSON(context.Background(), "https://example.com/api", &payload); err != nil {
		fmt.Printf("request failed: %v\n", err)
		return
	}
	fmt.Println(len(payload))
}

package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TempSKUPrefix marks placeholder IDs assigned to new rows during a CSV import
// CSV取込時に新規行へ割り当てる仮IDの接頭辞
const TempSKUPrefix = "SKU-TEMP-"

var (
	skuPattern = regexp.MustCompile(`^SKU-(\d{4,})$`)
	txPattern  = regexp.MustCompile(`^TX-(\d{6,})$`)
)

// NextSKU returns the SKU after the highest generated one. Gaps are never reused.
// 採番済みSKUの最大値+1を返す
func NextSKU(items []Item) string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return formatSKU(maxSequence(skuPattern, ids) + 1)
}

// NextTxID returns the transaction ID after the highest existing one
// 既存トランザクションIDの最大値+1を返す
func NextTxID(txs []Transaction) string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	return formatTxID(maxSequence(txPattern, ids) + 1)
}

// NextSKUNotIn returns the first generated SKU above the highest in used that is not in used
func NextSKUNotIn(used map[string]struct{}) string {
	ids := make([]string, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	n := maxSequence(skuPattern, ids) + 1
	for {
		candidate := formatSKU(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
		n++
	}
}

// TempSKU returns the lowest placeholder ID not used by items
// 未使用の最小仮IDを返す
func TempSKU(items []Item) string {
	used := make(map[string]struct{}, len(items))
	for _, item := range items {
		used[item.ID] = struct{}{}
	}
	for n := int64(1); ; n++ {
		candidate := fmt.Sprintf("%s%04d", TempSKUPrefix, n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// IsTempSKU reports whether id is an import placeholder
func IsTempSKU(id string) bool {
	return strings.HasPrefix(id, TempSKUPrefix)
}

func maxSequence(pattern *regexp.Regexp, ids []string) int64 {
	var max int64
	for _, id := range ids {
		m := pattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

func formatSKU(n int64) string {
	return fmt.Sprintf("SKU-%04d", n)
}

func formatTxID(n int64) string {
	return fmt.Sprintf("TX-%06d", n)
}

package erp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/intent"
	"github.com/DachengChen/paiERP/query"
)

// NetSuiteSource reads records from the NetSuite REST API using
// token-based (OAuth 1.0a, HMAC-SHA256) authentication.
type NetSuiteSource struct {
	cfg    config.NetSuiteConfig
	client *resty.Client

	now   func() time.Time
	nonce func() string
}

var _ Source = (*NetSuiteSource)(nil)

// NewNetSuiteSource creates a NetSuite source. hc may be nil.
func NewNetSuiteSource(cfg config.NetSuiteConfig, hc *http.Client) *NetSuiteSource {
	client := resty.New()
	if hc != nil {
		client = resty.NewWithClient(hc)
	}
	return &NetSuiteSource{
		cfg:    cfg,
		client: client.SetRetryCount(0),
		now:    time.Now,
		nonce:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Fetch GETs {baseURL}{endpoint} with the query parameters as the query
// string and converts the reply into typed records.
func (s *NetSuiteSource) Fetch(ctx context.Context, q query.Query) (any, error) {
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + q.Endpoint
	params := queryParams(q.Parameters)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", s.authorization(http.MethodGet, endpoint, params)).
		SetHeader("Content-Type", "application/json").
		SetQueryParams(params).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("NetSuite API call failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("NetSuite API call failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	var raw any
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("NetSuite API call failed: decode: %w", err)
	}
	return s.transform(raw, q.DataType), nil
}

func queryParams(p intent.Parameters) map[string]string {
	out := make(map[string]string)
	for k, v := range p.Map() {
		switch v := v.(type) {
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			out[k] = strconv.Itoa(v)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// authorization builds the OAuth 1.0a header for one request. The
// signature covers the method, the URL without query and every oauth and
// query parameter, sorted.
func (s *NetSuiteSource) authorization(method, endpoint string, params map[string]string) string {
	oauth := map[string]string{
		"oauth_consumer_key":     s.cfg.ConsumerKey,
		"oauth_token":            s.cfg.TokenID,
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_nonce":            s.nonce(),
		"oauth_version":          "1.0",
	}

	all := make([]string, 0, len(oauth)+len(params))
	for k, v := range oauth {
		all = append(all, percentEncode(k)+"="+percentEncode(v))
	}
	for k, v := range params {
		all = append(all, percentEncode(k)+"="+percentEncode(v))
	}
	sort.Strings(all)

	base := strings.ToUpper(method) + "&" + percentEncode(endpoint) + "&" + percentEncode(strings.Join(all, "&"))
	key := percentEncode(s.cfg.ConsumerSecret) + "&" + percentEncode(s.cfg.TokenSecret)
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf(`OAuth realm="%s", oauth_consumer_key="%s", oauth_token="%s", oauth_signature_method="HMAC-SHA256", oauth_timestamp="%s", oauth_nonce="%s", oauth_version="1.0", oauth_signature="%s"`,
		s.cfg.AccountID,
		oauth["oauth_consumer_key"],
		oauth["oauth_token"],
		oauth["oauth_timestamp"],
		oauth["oauth_nonce"],
		percentEncode(signature),
	)
}

// percentEncode applies RFC 3986 encoding.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (s *NetSuiteSource) transform(raw any, dt query.DataType) any {
	switch dt {
	case query.Customers:
		return mapItems(raw, toCustomer)
	case query.Orders:
		return mapItems(raw, toSalesOrder)
	case query.Invoices:
		now := s.now()
		return mapItems(raw, func(m map[string]any) Invoice { return toInvoice(m, now) })
	case query.Inventory:
		return mapItems(raw, toInventoryItem)
	case query.CashFlow:
		if obj, ok := raw.(map[string]any); ok && obj["items"] == nil {
			fp := toFinancialPeriod(obj)
			if fp.Period == "" {
				fp.Period = s.now().UTC().Format(time.RFC3339)
			}
			return []FinancialPeriod{fp}
		}
		return mapItems(raw, toFinancialPeriod)
	default:
		return raw
	}
}

// mapItems converts a JSON array, or an object carrying an "items" array,
// with fn. Non-object elements are skipped.
func mapItems[T any](raw any, fn func(map[string]any) T) []T {
	list, ok := raw.([]any)
	if !ok {
		if obj, isObj := raw.(map[string]any); isObj {
			list, _ = obj["items"].([]any)
		}
	}
	out := make([]T, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, fn(m))
		}
	}
	return out
}

func toCustomer(m map[string]any) Customer {
	name := str(m["entityid"])
	if name == "" {
		name = str(m["companyname"])
	}
	return Customer{
		Entity:        Entity{ID: str(m["id"]), Name: name, Type: "customer", LastModified: str(m["lastmodifieddate"])},
		Email:         str(m["email"]),
		Phone:         str(m["phone"]),
		Status:        orDefault(str(m["status"]), "active"),
		TotalRevenue:  num(m["totalrevenue"]),
		LastOrderDate: str(m["lastorderdate"]),
	}
}

func toSalesOrder(m map[string]any) SalesOrder {
	return SalesOrder{
		Entity:       Entity{ID: str(m["id"]), Name: str(m["tranid"]), Type: "salesorder", LastModified: str(m["lastmodifieddate"])},
		CustomerID:   str(m["entity"]),
		CustomerName: str(m["entityname"]),
		Amount:       num(m["total"]),
		Status:       str(m["status"]),
		OrderDate:    str(m["trandate"]),
		DueDate:      orDefault(str(m["duedate"]), str(m["trandate"])),
	}
}

func toInvoice(m map[string]any, now time.Time) Invoice {
	due := str(m["duedate"])
	return Invoice{
		Entity:       Entity{ID: str(m["id"]), Name: str(m["tranid"]), Type: "invoice", LastModified: str(m["lastmodifieddate"])},
		CustomerID:   str(m["entity"]),
		CustomerName: str(m["entityname"]),
		Amount:       num(m["total"]),
		Status:       str(m["status"]),
		DueDate:      due,
		OverdueDays:  overdueDays(due, now),
	}
}

func toInventoryItem(m map[string]any) InventoryItem {
	return InventoryItem{
		Entity:       Entity{ID: str(m["id"]), Name: str(m["itemid"]), Type: "inventoryitem", LastModified: str(m["lastmodifieddate"])},
		SKU:          str(m["itemid"]),
		Category:     orDefault(str(m["itemtype"]), "inventory"),
		Quantity:     int(num(m["quantityavailable"])),
		ReorderPoint: int(num(m["reorderpoint"])),
		UnitCost:     num(m["averagecost"]),
		Location:     orDefault(str(m["location"]), "Main"),
	}
}

func toFinancialPeriod(m map[string]any) FinancialPeriod {
	return FinancialPeriod{
		Period:   orDefault(str(m["period"]), str(m["trandate"])),
		Revenue:  num(m["revenue"]),
		Expenses: num(m["expenses"]),
		Profit:   num(m["profit"]),
		CashFlow: num(m["cashflow"]),
	}
}

// overdueDays counts whole days, rounded up, since due. Future, missing
// or unparsable dates yield 0.
func overdueDays(due string, now time.Time) int {
	if due == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", due)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, due); err != nil {
			return 0
		}
	}
	days := math.Ceil(now.Sub(t).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(days)
}

func str(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func num(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

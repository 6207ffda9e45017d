package chrome

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/wirepair/gcd/gcdapi"
	"gitlab.com/offview/webview"
)

// encodeHeaders flattens the engine's loosely typed header map and
// lower cases names so lookups are stable
func encodeHeaders(gcdHeaders map[string]interface{}) map[string]string {
	headers := make(map[string]string, len(gcdHeaders))
	for k, v := range gcdHeaders {
		name := strings.ToLower(k)
		switch rv := v.(type) {
		case string:
			headers[name] = rv
		case []string:
			headers[name] = strings.Join(rv, ",")
		case nil:
			headers[name] = ""
		default:
			log.Warn().Str("header_name", k).Msg("unable to encode header value")
		}
	}
	return headers
}

// headerEntries converts a header map into the engine's entry list,
// sorted by name so wire output is deterministic
func headerEntries(headers map[string]string) []*gcdapi.FetchHeaderEntry {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	entries := make([]*gcdapi.FetchHeaderEntry, len(names))
	for i, name := range names {
		entries[i] = &gcdapi.FetchHeaderEntry{Name: name, Value: headers[name]}
	}
	return entries
}

// pausedToRequest builds the surface request value for a paused fetch
// event so the gate and interceptor can work with it
func pausedToRequest(m *gcdapi.FetchRequestPausedEvent) *webview.Request {
	p := m.Params
	req := &webview.Request{
		ID:           p.RequestId,
		Method:       "GET",
		Headers:      make(map[string]string),
		ResourceType: p.ResourceType,
		IsNavigation: p.ResourceType == "Document",
	}
	if p.Request != nil {
		req.URL = p.Request.Url
		req.Method = p.Request.Method
		req.Headers = encodeHeaders(p.Request.Headers)
		if p.Request.HasPostData {
			req.PostData = []byte(p.Request.PostData)
		}
	}
	return req
}

// gjsonToJSValue converts a parsed JSON document into a JSValue
func gjsonToJSValue(r gjson.Result) webview.JSValue {
	switch r.Type {
	case gjson.False:
		return webview.BoolValue(false)
	case gjson.True:
		return webview.BoolValue(true)
	case gjson.String:
		return webview.StringValue(r.Str)
	case gjson.Number:
		if float64(int(r.Num)) == r.Num {
			return webview.IntValue(int(r.Num))
		}
		return webview.DoubleValue(r.Num)
	case gjson.JSON:
		if r.IsArray() {
			arr := r.Array()
			values := make([]webview.JSValue, len(arr))
			for i, e := range arr {
				values[i] = gjsonToJSValue(e)
			}
			return webview.ArrayValue(values...)
		}
		fields := make(map[string]webview.JSValue)
		r.ForEach(func(k, v gjson.Result) bool {
			fields[k.String()] = gjsonToJSValue(v)
			return true
		})
		return webview.ObjectValue(fields)
	}
	return webview.NullValue()
}

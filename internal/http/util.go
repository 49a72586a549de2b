package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// orgIDFromReq 从请求头取机构 ID（鉴权网关注入，引擎不做鉴权）
// 兼容查询参数 org_id（联调用）
func orgIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID := r.Header.Get("X-Org-Id")
	if orgID == "" {
		orgID = r.URL.Query().Get("org_id")
	}
	if orgID == "" {
		writeJSON(w, http.StatusOK, Fail("org_id is required"))
		return "", false
	}
	return orgID, true
}

// userIDFromReq 从请求头取操作用户 ID（审计字段用）
func userIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusOK, Fail("user_id is required"))
		return "", false
	}
	return userID, true
}

package config

import (
	"testing"
)

func TestListCacheDefaultAndDisable(t *testing.T) {
	Set(AppConfig{})
	if got := Get().ListCacheSeconds; got != 600 {
		t.Fatalf("default ListCacheSeconds = %d, want 600", got)
	}
	Set(AppConfig{ListCacheSeconds: -1})
	if got := Get().ListCacheSeconds; got != -1 {
		t.Fatalf("disabled ListCacheSeconds = %d, want -1", got)
	}
}

func TestEnvOverridesBoardSwitches(t *testing.T) {
	t.Setenv("LIST_CACHE_SECONDS", "-1")
	t.Setenv("OWNER_LOGIN_CAPTCHA", "true")
	t.Setenv("MSG_CAPTCHA_ENABLED", "0")
	c := AppConfig{ListCacheSeconds: 600}
	applyEnvOverrides(&c)
	if c.ListCacheSeconds != -1 || !c.LoginCaptcha || c.MsgCaptchaEnabled {
		t.Fatalf("overrides not applied: cache=%d login=%v msg=%v", c.ListCacheSeconds, c.LoginCaptcha, c.MsgCaptchaEnabled)
	}
}

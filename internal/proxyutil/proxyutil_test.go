package proxyutil

import (
	"reflect"
	"testing"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
)

func TestNormalize_DefaultPortAndProtocol(t *testing.T) {
	p := Normalize(models.Proxy{Host: "1.2.3.4"})
	if p.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", p.Port)
	}
	if p.Protocol != models.ProtocolHTTP {
		t.Fatalf("expected http for port 8080, got %q", p.Protocol)
	}
}

func TestNormalize_InferFromPort(t *testing.T) {
	cases := []struct {
		port int
		want models.ProxyProtocol
	}{
		{80, models.ProtocolHTTP},
		{443, models.ProtocolHTTPS},
		{1080, models.ProtocolSOCKS5},
		{1081, models.ProtocolSOCKS4},
		{8443, models.ProtocolHTTPS},
		{3128, models.ProtocolHTTP}, // unrecognized port falls back to http
	}
	for _, c := range cases {
		got := Normalize(models.Proxy{Host: "h", Port: c.port})
		if got.Protocol != c.want {
			t.Errorf("port %d: got %q want %q", c.port, got.Protocol, c.want)
		}
	}
}

func TestNormalize_ExplicitProtocolWins(t *testing.T) {
	p := Normalize(models.Proxy{Host: "h", Port: 443, Protocol: models.ProtocolSOCKS5})
	if p.Protocol != models.ProtocolSOCKS5 {
		t.Fatalf("explicit protocol overridden: %q", p.Protocol)
	}
}

func TestFilter_DropsUnsupportedKeepsOrder(t *testing.T) {
	in := []models.Proxy{
		{Host: "a", Port: 1080},
		{Host: "b", Port: 9999, Protocol: "ssh"},
		{Host: "c", Port: 443},
		{Host: "d"},
	}
	got := Filter(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 surviving proxies, got %d: %#v", len(got), got)
	}
	hosts := []string{got[0].Host, got[1].Host, got[2].Host}
	if !reflect.DeepEqual(hosts, []string{"a", "c", "d"}) {
		t.Fatalf("order not preserved: %v", hosts)
	}
	for _, p := range got {
		if !supportedProtocols[p.Protocol] {
			t.Fatalf("unsupported protocol survived filter: %#v", p)
		}
	}
}

func TestParseList_Forms(t *testing.T) {
	text := "# comment\n" +
		"1.2.3.4:8080\n" +
		"\n" +
		"5.6.7.8:1080:user:pass\n" +
		"user2:pass2@9.9.9.9:3128\n" +
		"socks5://10.0.0.1:9050\n" +
		"bare.example.com\n" +
		"not a proxy line\n"

	got := ParseList(text)
	if len(got) != 5 {
		t.Fatalf("expected 5 proxies, got %d: %#v", len(got), got)
	}

	if got[0].Host != "1.2.3.4" || got[0].Port != 8080 {
		t.Errorf("bad simple parse: %#v", got[0])
	}
	if got[1].Username != "user" || got[1].Password != "pass" || got[1].Port != 1080 {
		t.Errorf("bad colon-auth parse: %#v", got[1])
	}
	if got[2].Username != "user2" || got[2].Host != "9.9.9.9" || got[2].Port != 3128 {
		t.Errorf("bad at-auth parse: %#v", got[2])
	}
	if got[3].Protocol != models.ProtocolSOCKS5 || got[3].Port != 9050 {
		t.Errorf("bad scheme parse: %#v", got[3])
	}
	if got[4].Host != "bare.example.com" || got[4].Port != 0 {
		t.Errorf("bad bare-host parse: %#v", got[4])
	}
}

func TestParseList_InvalidPort(t *testing.T) {
	got := ParseList("1.2.3.4:notaport\n1.2.3.4:70000\n")
	if len(got) != 0 {
		t.Fatalf("invalid ports should be skipped, got %#v", got)
	}
}

func TestParseUserAgents(t *testing.T) {
	got := ParseUserAgents("Mozilla/5.0 A\n\n# x\nMozilla/5.0 B\n")
	if len(got) != 2 || got[0] != "Mozilla/5.0 A" || got[1] != "Mozilla/5.0 B" {
		t.Fatalf("bad user agent parse: %#v", got)
	}
}

package ws

import "testing"

func TestDialURLEscapesPlayerName(t *testing.T) {
	cases := []struct {
		name string
		cfg  DialConfig
		want string
	}{
		{"no name", DialConfig{URL: "ws://host:8080/ws"}, "ws://host:8080/ws"},
		{"plain", DialConfig{URL: "ws://host:8080/ws", Name: "alice"}, "ws://host:8080/ws?name=alice"},
		{"spaces", DialConfig{URL: "ws://host:8080/ws", Name: "big boss"}, "ws://host:8080/ws?name=big+boss"},
		{"separators", DialConfig{URL: "ws://host:8080/ws", Name: "a&b=c#d"}, "ws://host:8080/ws?name=a%26b%3Dc%23d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := dialURL(tc.cfg); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

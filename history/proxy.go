package history

import (
	"fmt"
	"net/url"

	"github.com/gotd/td/telegram/dcs"
	"golang.org/x/net/proxy"
)

func newDialer(proxyConnStr string) (proxy.Dialer, error) {
	diaUrl, err := url.Parse(proxyConnStr)
	if err != nil {
		return nil, err
	}
	socks5, err := proxy.FromURL(diaUrl, proxy.Direct)
	if err != nil {
		return nil, err
	}
	return socks5, nil
}

// NewResolver 通过socks5代理访问数据中心
func NewResolver(host string, port int) (dcs.Resolver, error) {
	socks5, err := newDialer(fmt.Sprintf("socks5://%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	dc, ok := socks5.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("代理不支持ContextDialer: %T", socks5)
	}
	return dcs.Plain(dcs.PlainOptions{
		Dial: dc.DialContext,
	}), nil
}

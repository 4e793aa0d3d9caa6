package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func spotBand() (decimal.Decimal, decimal.Decimal) {
	return decimal.NewFromInt(5000), decimal.NewFromInt(8000)
}

func TestSinaFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"d":"2026-08-22","c":"7050.00"},{"d":"2026-08-25","c":"7120.00"}]`)
	}))
	defer srv.Close()

	min, max := spotBand()
	s := NewSina(SinaOptions{URL: srv.URL, MinPrice: min, MaxPrice: max, Timeout: time.Second}, noopLogger())

	price, err := s.FetchSpotPrice(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("7120")) {
		t.Fatalf("应取最后一条日线收盘价, 实际 %s", price.String())
	}
}

func TestSinaFetchEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	min, max := spotBand()
	s := NewSina(SinaOptions{URL: srv.URL, MinPrice: min, MaxPrice: max, Timeout: time.Second}, noopLogger())

	if _, err := s.FetchSpotPrice(context.Background()); err == nil {
		t.Fatal("空序列应返回错误")
	}
}

func TestSinaFetchRejectsOutOfBandPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"d":"2026-08-25","c":"9100.00"}]`)
	}))
	defer srv.Close()

	min, max := spotBand()
	s := NewSina(SinaOptions{URL: srv.URL, MinPrice: min, MaxPrice: max, Timeout: time.Second}, noopLogger())

	if _, err := s.FetchSpotPrice(context.Background()); err == nil {
		t.Fatal("越界价格应被拒绝")
	}
}

func TestEastmoneyFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"f43":7085.0}}`)
	}))
	defer srv.Close()

	min, max := spotBand()
	e := NewEastmoney(EastmoneyOptions{URL: srv.URL, MinPrice: min, MaxPrice: max, Timeout: time.Second}, noopLogger())

	price, err := e.FetchSpotPrice(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("7085")) {
		t.Fatalf("期望价格 7085, 实际 %s", price.String())
	}
}

func TestEastmoneyFetchMissingPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":null}`)
	}))
	defer srv.Close()

	min, max := spotBand()
	e := NewEastmoney(EastmoneyOptions{URL: srv.URL, MinPrice: min, MaxPrice: max, Timeout: time.Second}, noopLogger())

	if _, err := e.FetchSpotPrice(context.Background()); err == nil {
		t.Fatal("缺失报价应返回错误")
	}
}

type fixedSpot struct {
	price decimal.Decimal
	err   error
}

func (f *fixedSpot) FetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	return f.price, f.err
}

func TestSpotChainFallsBackToSecondProvider(t *testing.T) {
	chain := NewSpotChain(noopLogger(),
		&fixedSpot{err: fmt.Errorf("sina unavailable")},
		&fixedSpot{price: decimal.RequireFromString("7100")},
	)

	price, err := chain.FetchSpotPrice(context.Background())
	if err != nil {
		t.Fatalf("第二个数据源可用时不应报错: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("7100")) {
		t.Fatalf("应返回备用数据源价格, 实际 %s", price.String())
	}
}

func TestSpotChainAllProvidersFail(t *testing.T) {
	chain := NewSpotChain(noopLogger(),
		&fixedSpot{err: fmt.Errorf("sina unavailable")},
		&fixedSpot{err: fmt.Errorf("eastmoney unavailable")},
	)

	if _, err := chain.FetchSpotPrice(context.Background()); err == nil {
		t.Fatal("全部数据源失败时应返回错误")
	}
}

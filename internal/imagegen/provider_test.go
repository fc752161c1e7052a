package imagegen

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClampDim(t *testing.T) {
	Convey("clampDim 把尺寸钳到 64 的倍数", t, func() {
		So(clampDim(100), ShouldEqual, 64)
		So(clampDim(130), ShouldEqual, 128)
		So(clampDim(0), ShouldEqual, 64)
		So(clampDim(64), ShouldEqual, 64)
		So(clampDim(1280), ShouldEqual, 1280)
		So(clampDim(-5), ShouldEqual, 64)
	})
}

func TestIsBillingMessage(t *testing.T) {
	Convey("isBillingMessage 识别计费类错误消息", t, func() {
		So(isBillingMessage("Insufficient credit to run this model"), ShouldBeTrue)
		So(isBillingMessage("error: insufficient credit"), ShouldBeTrue)
		So(isBillingMessage("replicate request failed, status: 402, body: {}"), ShouldBeTrue)
		So(isBillingMessage("model not found"), ShouldBeFalse)
		So(isBillingMessage("status: 500"), ShouldBeFalse)
	})
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	Convey("withRetry 的重试与短路行为", t, func() {
		Convey("计费错误第一次就短路，不再重试", func() {
			calls := 0
			_, err := withRetry(ctx, func() (string, error) {
				calls++
				return "", &BillingCreditError{Msg: "no credit"}
			})
			So(calls, ShouldEqual, 1)
			var billing *BillingCreditError
			So(errors.As(err, &billing), ShouldBeTrue)
		})

		Convey("成功时直接返回", func() {
			calls := 0
			url, err := withRetry(ctx, func() (string, error) {
				calls++
				return "http://example.com/a.png", nil
			})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://example.com/a.png")
			So(calls, ShouldEqual, 1)
		})

		Convey("瞬时失败后重试并最终成功", func() {
			calls := 0
			url, err := withRetry(ctx, func() (string, error) {
				calls++
				if calls == 1 {
					return "", errors.New("temporary glitch")
				}
				return "http://example.com/b.png", nil
			})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://example.com/b.png")
			So(calls, ShouldEqual, 2)
		})

		Convey("上下文取消时停止重试", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			calls := 0
			_, err := withRetry(cancelled, func() (string, error) {
				calls++
				return "", errors.New("always fails")
			})
			So(err, ShouldNotBeNil)
			So(calls, ShouldEqual, 1)
		})
	})
}

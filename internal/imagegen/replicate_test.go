package imagegen

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// newTestClient 构造注入假预测函数的客户端
func newTestClient(run runFunc) *ReplicateClient {
	return &ReplicateClient{
		apiToken: "test-token",
		model:    "black-forest-labs/flux-1.1-pro",
		timeout:  5 * time.Second,
		run:      run,
	}
}

func TestReplicateClient_FallbackLadder(t *testing.T) {
	ctx := context.Background()

	Convey("ReplicateClient 的参数降级阶梯", t, func() {
		Convey("aspect_ratio 被拒后降级为显式 1280x720", func() {
			var payloads []map[string]interface{}
			c := newTestClient(func(_ context.Context, payload map[string]interface{}) (interface{}, error) {
				payloads = append(payloads, payload)
				if len(payloads) == 1 {
					return nil, errors.New("aspect ratio is not supported by this model")
				}
				return []interface{}{"http://cdn.example.com/img.png"}, nil
			})
			c.aspectRatio = "21:9"

			url, err := c.generateOnce(ctx, "a fish", nil)
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://cdn.example.com/img.png")
			So(len(payloads), ShouldEqual, 2)
			So(payloads[0]["aspect_ratio"], ShouldEqual, "21:9")
			So(payloads[1], ShouldNotContainKey, "aspect_ratio")
			So(payloads[1]["width"], ShouldEqual, 1280)
			So(payloads[1]["height"], ShouldEqual, 720)
		})

		Convey("宽高被拒后降级为配置的纵横比", func() {
			var payloads []map[string]interface{}
			c := newTestClient(func(_ context.Context, payload map[string]interface{}) (interface{}, error) {
				payloads = append(payloads, payload)
				if len(payloads) == 1 {
					return nil, errors.New("width must be between 256 and 1440")
				}
				return []interface{}{"http://cdn.example.com/img.png"}, nil
			})
			c.width, c.height = 1280, 720

			_, err := c.generateOnce(ctx, "a fish", nil)
			So(err, ShouldBeNil)
			So(payloads[1], ShouldNotContainKey, "width")
			So(payloads[1], ShouldNotContainKey, "height")
			So(payloads[1]["aspect_ratio"], ShouldEqual, "16:9")
		})

		Convey("其他参数错误走兜底：去掉所有尺寸参数，提示词附加构图指令", func() {
			var payloads []map[string]interface{}
			c := newTestClient(func(_ context.Context, payload map[string]interface{}) (interface{}, error) {
				payloads = append(payloads, payload)
				if len(payloads) == 1 {
					return nil, errors.New("unexpected input parameter")
				}
				return []interface{}{"http://cdn.example.com/img.png"}, nil
			})
			c.aspectRatio = "16:9"

			_, err := c.generateOnce(ctx, "a fish", nil)
			So(err, ShouldBeNil)
			So(payloads[1], ShouldNotContainKey, "aspect_ratio")
			So(payloads[1], ShouldNotContainKey, "width")
			So(payloads[1]["prompt"], ShouldContainSubstring, "[Compose in a 16:9 aspect ratio]")
		})

		Convey("计费错误不走降级阶梯，直接返回 BillingCreditError", func() {
			calls := 0
			c := newTestClient(func(_ context.Context, _ map[string]interface{}) (interface{}, error) {
				calls++
				return nil, errors.New("replicate request failed, status: 402, body: Insufficient credit")
			})

			_, err := c.Generate(ctx, "a fish", nil)
			So(calls, ShouldEqual, 1)
			var billing *BillingCreditError
			So(errors.As(err, &billing), ShouldBeTrue)
		})

		Convey("降级后再遇计费错误同样短路", func() {
			calls := 0
			c := newTestClient(func(_ context.Context, _ map[string]interface{}) (interface{}, error) {
				calls++
				if calls == 1 {
					return nil, errors.New("aspect ratio rejected")
				}
				return nil, errors.New("Insufficient credit")
			})
			c.aspectRatio = "16:9"

			_, err := c.Generate(ctx, "a fish", nil)
			So(calls, ShouldEqual, 2)
			var billing *BillingCreditError
			So(errors.As(err, &billing), ShouldBeTrue)
		})
	})
}

func TestReplicateClient_BuildPayload(t *testing.T) {
	Convey("buildPayload 按模型族整形参数", t, func() {
		Convey("sd3 族只带 aspect_ratio", func() {
			c := newTestClient(nil)
			c.model = "stability-ai/stable-diffusion-3.5-large"
			c.width, c.height = 1280, 720

			payload := c.buildPayload("p", nil)
			So(payload["aspect_ratio"], ShouldEqual, "16:9")
			So(payload, ShouldNotContainKey, "width")
		})

		Convey("显式宽高被钳到 64 的倍数", func() {
			c := newTestClient(nil)
			c.width, c.height = 1000, 700

			payload := c.buildPayload("p", nil)
			So(payload["width"], ShouldEqual, 960)
			So(payload["height"], ShouldEqual, 640)
		})

		Convey("seed 指针非空时进入载荷", func() {
			c := newTestClient(nil)
			seed := int64(42)
			payload := c.buildPayload("p", &seed)
			So(payload["seed"], ShouldEqual, int64(42))
		})
	})
}

func TestExtractImageURL(t *testing.T) {
	Convey("extractImageURL 归一化异构响应", t, func() {
		Convey("列表首个URL字符串", func() {
			url, err := extractImageURL([]interface{}{"http://x/y.png"})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://x/y.png")
		})

		Convey("列表首个文件句柄（url 属性）", func() {
			url, err := extractImageURL([]interface{}{map[string]interface{}{"url": "http://x/z.png"}})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://x/z.png")
		})

		Convey("文件句柄只有本地路径时转为 file:// 引用", func() {
			url, err := extractImageURL([]interface{}{map[string]interface{}{"path": "/tmp/out.png"}})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "file:///tmp/out.png")
		})

		Convey("裸字符串直接返回", func() {
			url, err := extractImageURL("http://x/plain.png")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://x/plain.png")
		})

		Convey("字典值里的URL", func() {
			url, err := extractImageURL(map[string]interface{}{"image": "http://x/d.png"})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://x/d.png")
		})

		Convey("字典值里一层嵌套列表", func() {
			url, err := extractImageURL(map[string]interface{}{"output": []interface{}{"http://x/n.png"}})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://x/n.png")
		})

		Convey("无法识别的形状返回 UnrecognizedResponseError，带形状描述", func() {
			_, err := extractImageURL(42.0)
			var unrecognized *UnrecognizedResponseError
			So(errors.As(err, &unrecognized), ShouldBeTrue)
			So(unrecognized.Shape, ShouldContainSubstring, "float64")
		})
	})
}

package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// TextGenerator 文本生成能力的窄接口
// 分段、摘要、提示词、标题等上游推理步骤只依赖这一个方法，方便单测和替换实现
type TextGenerator interface {
	// Complete 根据系统指令和用户指令生成一段文本
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client 基于 eino ChatModel 的文本生成客户端
// 同时提供视觉（OCR）能力，复用同一个模型实例
type Client struct {
	chatModel model.ChatModel
}

// NewClient 创建文本生成客户端
func NewClient(chatModel model.ChatModel) *Client {
	return &Client{chatModel: chatModel}
}

// Complete 根据系统指令和用户指令生成一段文本
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	content := response.Content
	if content == "" {
		return "", fmt.Errorf("empty response from chat model")
	}

	return content, nil
}

// ExtractTextFromImageURL 从图片URL提取可读文本（OCR）
// hint 为空时使用默认的提取指令
func (c *Client) ExtractTextFromImageURL(ctx context.Context, imageURL, hint string) (string, error) {
	if c.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}
	if hint == "" {
		hint = "Extract all readable text from this image as plain text. Preserve line breaks."
	}

	// 多模态消息：文本指令 + 图片
	messages := []*schema.Message{
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeText,
					Text: hint,
				},
				{
					Type:     schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{URL: imageURL},
				},
			},
		},
	}

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from image: %w", err)
	}

	return response.Content, nil
}

// ExtractTextFromImageBytes 从图片原始字节提取可读文本（OCR）
// 通过 data URL 复用 URL 版本的实现
func (c *Client) ExtractTextFromImageBytes(ctx context.Context, contentType string, data []byte, hint string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	return c.ExtractTextFromImageURL(ctx, dataURL, hint)
}

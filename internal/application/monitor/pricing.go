// Package monitor 实现补全调用监控与成本核算
package monitor

// modelPrice 每 1000 token 的美元单价
type modelPrice struct {
	Input  float64
	Output float64
}

// genericPrice 未知提供商/模型的兜底单价
var genericPrice = modelPrice{Input: 0.002, Output: 0.006}

// modelPricing 静态价格表，键为 (provider, model)
// 提供商可带 "default" 条目作为该提供商的兜底价。
var modelPricing = map[string]map[string]modelPrice{
	"deepseek": {
		"deepseek-chat":     {Input: 0.0014, Output: 0.0028},
		"deepseek-reasoner": {Input: 0.0055, Output: 0.0280},
	},
	"qwen": {
		"qwen-max":   {Input: 0.02, Output: 0.06},
		"qwen-plus":  {Input: 0.008, Output: 0.024},
		"qwen-turbo": {Input: 0.003, Output: 0.006},
	},
	"zhipu": {
		"glm-4":       {Input: 0.05, Output: 0.05},
		"glm-4-flash": {Input: 0.001, Output: 0.001},
		"glm-3-turbo": {Input: 0.005, Output: 0.005},
	},
	"gemini": {
		"gemini-pro":        {Input: 0.0005, Output: 0.0015},
		"gemini-pro-vision": {Input: 0.0025, Output: 0.0075},
	},
	"openrouter": {
		"default": {Input: 0.002, Output: 0.006}, // 平均价格
	},
	"anthropic": {
		"claude-3-sonnet-20240229": {Input: 0.003, Output: 0.015},
		"claude-3-haiku-20240307":  {Input: 0.00025, Output: 0.00125},
	},
}

// EstimateCost 按静态价格表估算一次调用的成本
// 查找顺序：精确模型 > 提供商 default > 通用兜底。
// 未知提供商按总 token 数乘通用输入价计算。
func EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	pricing, ok := modelPricing[provider]
	if !ok {
		return float64(inputTokens+outputTokens) / 1000 * genericPrice.Input
	}

	price, ok := pricing[model]
	if !ok {
		price, ok = pricing["default"]
		if !ok {
			price = genericPrice
		}
	}

	return float64(inputTokens)/1000*price.Input + float64(outputTokens)/1000*price.Output
}

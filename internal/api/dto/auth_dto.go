package dto

// TokenRequest 服务令牌申请
type TokenRequest struct {
	Service  string `json:"service" binding:"required,min=1,max=64"`
	AdminKey string `json:"admin_key" binding:"required,min=8,max=255"`
}

// TokenData 签发成功返回的令牌信息
type TokenData struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	Subject   string `json:"subject"`
}

package dto

// MediaTempMetadata 已上传但尚未被消息引用的媒体
type MediaTempMetadata struct {
	ObjectName string `json:"object_name"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// MediaUploadDTO 上传结果
type MediaUploadDTO struct {
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

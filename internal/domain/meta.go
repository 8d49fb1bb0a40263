package domain

// MetadataRecord 是从 EXIF 中提取的、可直接展示的最小字段集。
//
// 约束：
// - 所有字段可选；空串表示缺失（JSON 中省略）
// - 每个 group 只生成一次，生成后不再修改
type MetadataRecord struct {
	ShutterSpeed string `json:"shutterSpeed,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	ISO          string `json:"iso,omitempty"`
	FocalLength  string `json:"focalLength,omitempty"`
	DateTime     string `json:"dateTime,omitempty"`
	Model        string `json:"model,omitempty"`
	Lens         string `json:"lens,omitempty"`
}

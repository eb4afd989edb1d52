package dto

// RegisterRequest phone number signup
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,min=6,max=20"`
	Password    string `json:"password" binding:"required,min=8,max=64"`
	Name        string `json:"name" binding:"omitempty,max=255"`
}

// LoginRequest phone number login
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// AuthResponse token plus the teacher it belongs to
type AuthResponse struct {
	Token   string       `json:"token"`
	Teacher *TeacherInfo `json:"teacher"`
}

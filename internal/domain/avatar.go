package domain

// AvatarType is the only animation type the protocol knows about.
const AvatarType = "Animation"

// MotionCodes are the keyframe sets an avatar may define: four directions
// each for moving, standing and acting (numpad notation).
var MotionCodes = []string{
	"move_2", "move_4", "move_6", "move_8",
	"stop_2", "stop_4", "stop_6", "stop_8",
	"act_2", "act_4", "act_6", "act_8",
}

// Frameset is one named animation: frame indices plus whether it loops.
type Frameset struct {
	Loop   bool      `json:"loop"`
	Frames []float64 `json:"frames" validate:"required,min=2"`
}

// Avatar is the full metadata package a client uploads for its sprite.
// Forwarding the whole chunk saves other clients a second fetch and lets
// the server enforce per-domain rules (dimension limits and the like).
type Avatar struct {
	Type      string              `json:"type" validate:"required,eq=Animation"`
	Autoplay  bool                `json:"autoplay,omitempty"`
	URL       string              `json:"url" validate:"required"`
	Width     int                 `json:"width" validate:"required,gte=1,lte=128"`
	Height    int                 `json:"height" validate:"required,gte=1,lte=128"`
	Keyframes map[string]Frameset `json:"keyframes" validate:"required,dive,keys,motioncode,endkeys"`
}

package services

import "math/rand"

// FallbackResponses is the pool of supportive phrases streamed when the
// hosted model is unavailable. The client-side renderer sees the same
// event framing either way.
var FallbackResponses = []string{
	"I'm here to listen and support you. How are you feeling today? I want to understand what's on your mind.",
	"Thank you for reaching out to me. Your feelings are valid, and I'm here to help you work through whatever you're experiencing.",
	"I can sense that you might be going through something difficult. Would you like to share more about how you're feeling?",
	"It takes courage to reach out for support. I'm here to listen without judgment and help you explore your thoughts and feelings.",
	"I'm glad you're here. Sometimes talking through our experiences can help us gain new perspectives. What would you like to discuss?",
	"Your mental health matters, and I'm here to support you. What's been weighing on your mind lately?",
	"I want to create a safe space for you to express yourself. How can I best support you today?",
	"Thank you for trusting me with your thoughts. I'm here to listen and help you navigate whatever you're facing.",
}

// PickFallbackResponse selects one phrase from the pool pseudo-randomly.
func PickFallbackResponse() string {
	return FallbackResponses[rand.Intn(len(FallbackResponses))]
}

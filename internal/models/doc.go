// Package models lists the OpenAI speech models available to an API key,
// for choosing a value for the openai audio provider's model setting.
package models

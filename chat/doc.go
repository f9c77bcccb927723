// Package chat is the caller side of the chat backend: it builds submission
// payloads from a Session, sends them through the bounded-retry executor in
// package httpclient, and turns failures into text that can be shown to the
// person chatting.
//
// Two policies exist. Free text typed by the user is sanitized and sent with
// TypedPolicy; a suggested reply picked by the user is sent unchanged with
// QuickReplyPolicy. Both allow two attempts in total.
package chat

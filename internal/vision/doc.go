// Package vision defines the contracts between the game core and its two
// external collaborators: the camera that supplies frames and the image
// classifier that ranks gesture labels for a frame.
//
// Frames follow a latest-only policy. A FrameSource never queues frames; a
// slow consumer simply sees the newest one, and the intermediate frames are
// counted as drops. See Mailbox.
package vision

// Package classifier provides vision.Classifier implementations.
//
// Remote talks to a hosted image model: Load reads the model's metadata.json
// (the Teachable Machine export layout) to learn the label set, and Classify
// sends frames over a websocket to an inference service that replies with
// one probability per label. Static replays scripted results and backs the
// demo driver and tests.
package classifier

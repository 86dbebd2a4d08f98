package main

import (
	"flag"
	"log"
	"os"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/meshnode/pkg/uplink/mqtt"
	"github.com/robotalks/meshnode/pkg/uplink/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/mesh/"
)

func init() {
	if val := os.Getenv("MESH_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func decode(msg proto.Message) mqtt.Handler {
	return func(topic string, payload []byte) {
		msg.Reset()
		if err := proto.Unmarshal(payload, msg); err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, msg.String())
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("telemetry/+", decode(&msgs.Telemetry{}))
	q.Sub("ack/+", decode(&msgs.Ack{}))
	q.Sub(mqtt.TopicCommand, decode(&msgs.Command{}))
	<-(chan struct{})(nil)
}

// Camtest - grab one frame from the camera and save it
//
// Quick check that OpenCV can see the device before running the daemon.
package main

import (
	"flag"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

func main() {
	index := flag.Int("index", 0, "Camera device index")
	out := flag.String("out", "frame_001.jpg", "Output file")
	flag.Parse()

	fmt.Printf("📹 Opening camera %d...\n", *index)

	device, err := gocv.OpenVideoCapture(*index)
	if err != nil {
		fmt.Printf("❌ Failed to open camera: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()

	img := gocv.NewMat()
	defer img.Close()

	if ok := device.Read(&img); !ok || img.Empty() {
		fmt.Println("❌ Failed to capture frame")
		os.Exit(1)
	}

	if ok := gocv.IMWrite(*out, img); !ok {
		fmt.Printf("❌ Failed to write %s\n", *out)
		os.Exit(1)
	}

	fmt.Printf("✅ Saved %dx%d frame to %s\n", img.Cols(), img.Rows(), *out)
}

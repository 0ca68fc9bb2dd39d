package renderer

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/entity"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/staging"
)

// Packed block sizes.
const (
	// GlobalHeaderSize is the camera position and light count that open the global block.
	GlobalHeaderSize = 16

	// LightRecordAlign is the alignment of every light record in the global block.
	LightRecordAlign = 16

	// EntityBlockSize is the world and world-view-projection matrices of one entity.
	EntityBlockSize = 128
)

// Scene is what the renderer draws: a camera, the lights and the entities in draw order.
type Scene interface {
	Camera() camera.Camera
	Lights() []light.Light
	Entities() []entity.Entity
}

// packFrame writes the frame's uniform data into the staging buffer: the global block first, then
// one aligned block per enabled entity whose range is recorded on the entity. Identical inputs
// produce identical bytes.
//
// Parameters:
//   - s: the staging buffer, unmapped
//   - sc: the scene
//   - alignment: the uniform offset alignment of the backend
//
// Returns:
//   - staging.Range: the range of the global block
//   - error: a staging error, fatal for the frame
func packFrame(s staging.StagingBuffer, sc Scene, alignment int) (staging.Range, error) {
	s.Reset()
	if err := s.AcquireForWriting(); err != nil {
		return staging.Range{}, err
	}

	global, err := writeFrame(s, sc, alignment)
	if err != nil {
		_ = s.Release()
		return staging.Range{}, err
	}
	if err := s.Release(); err != nil {
		return staging.Range{}, err
	}
	return global, nil
}

func writeFrame(s staging.StagingBuffer, sc Scene, alignment int) (staging.Range, error) {
	cam := sc.Camera()

	var lights []light.Light
	for _, l := range sc.Lights() {
		if l.Enabled() {
			lights = append(lights, l)
		}
	}
	if len(lights) > light.MaxLights {
		common.Logger().Warn("too many lights, extra lights are not packed", "lights", len(lights), "max", light.MaxLights)
		lights = lights[:light.MaxLights]
	}

	header := make([]byte, GlobalHeaderSize)
	common.PutVec3(header[0:12], cam.Position())
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(lights)))
	global, err := s.Write(header)
	if err != nil {
		return staging.Range{}, fmt.Errorf("global block: %w", err)
	}

	record := make([]byte, light.GPULightSize)
	for i, l := range lights {
		if err := s.Align(LightRecordAlign); err != nil {
			return staging.Range{}, fmt.Errorf("light %d: %w", i, err)
		}
		gl := light.ToGPULight(l)
		gl.MarshalInto(record)
		if _, err := s.Write(record); err != nil {
			return staging.Range{}, fmt.Errorf("light %d: %w", i, err)
		}
	}
	global.Size = s.Head() - global.Offset

	viewProjection := cam.ViewProjectionMatrix()
	block := make([]byte, EntityBlockSize)
	for _, e := range sc.Entities() {
		if !e.Enabled() {
			continue
		}
		if err := s.Align(alignment); err != nil {
			return staging.Range{}, fmt.Errorf("entity %d: %w", e.ID(), err)
		}
		world := e.WorldMatrix()
		common.PutMat4(block[0:64], world)
		common.PutMat4(block[64:128], viewProjection.Mul4(world))
		r, err := s.Write(block)
		if err != nil {
			return staging.Range{}, fmt.Errorf("entity %d: %w", e.ID(), err)
		}
		e.SetUniformRange(r)
	}
	return global, nil
}

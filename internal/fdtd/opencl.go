//go:build opencl

package fdtd

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"physviz/internal/grid"
)

const fdtdKernelSource = `__kernel void update_h(
    const int width,
    const int height,
    const float coef,
    __global const float* ez,
    __global float* hx,
    __global float* hy)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float e = ez[idx];
    float up = (y + 1 < height) ? ez[idx + width] : 0.0f;
    float right = (x + 1 < width) ? ez[idx + 1] : 0.0f;
    hx[idx] -= coef * (up - e);
    hy[idx] += coef * (right - e);
}

__kernel void update_e(
    const int width,
    const int height,
    const float coef,
    __global float* ez,
    __global const float* hx,
    __global const float* hy)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float left = (x > 0) ? hy[idx - 1] : 0.0f;
    float down = (y > 0) ? hx[idx - width] : 0.0f;
    ez[idx] += coef * ((hy[idx] - left) - (hx[idx] - down));
}

__kernel void inject_source(
    __global float* ez,
    __global const int* source_indices,
    const int source_count,
    const float value)
{
    int gid = get_global_id(0);
    if (gid >= source_count) {
        return;
    }
    ez[source_indices[gid]] += value;
}

__kernel void clear_walls(
    __global float* buffer,
    __global const int* wall_indices,
    const int wall_count)
{
    int gid = get_global_id(0);
    if (gid >= wall_count) {
        return;
    }
    int idx = wall_indices[gid];
    buffer[idx] = 0.0f;
}

__kernel void visualize(
    const int size,
    const float gain,
    __global const float* ez,
    __global const uchar* palette,
    const int palette_size,
    __global uchar* pixels)
{
    int idx = get_global_id(0);
    if (idx >= size) {
        return;
    }
    float v = ez[idx] * gain;
    v = (v > 1.0f) ? 1.0f : ((v >= -1.0f) ? v : -1.0f);
    int last = palette_size - 1;
    int p = (int)((v + 1.0f) * 0.5f * (float)last + 0.5f);
    p = clamp(p, 0, last);
    pixels[idx * 4 + 0] = palette[p * 4 + 0];
    pixels[idx * 4 + 1] = palette[p * 4 + 1];
    pixels[idx * 4 + 2] = palette[p * 4 + 2];
    pixels[idx * 4 + 3] = palette[p * 4 + 3];
}

__kernel void clear_fields(
    const int size,
    __global float* ez,
    __global float* hx,
    __global float* hy,
    __global uchar* pixels,
    __global const uchar* palette,
    const int sentinel)
{
    int idx = get_global_id(0);
    if (idx >= size) {
        return;
    }
    ez[idx] = 0.0f;
    hx[idx] = 0.0f;
    hy[idx] = 0.0f;
    pixels[idx * 4 + 0] = palette[sentinel * 4 + 0];
    pixels[idx * 4 + 1] = palette[sentinel * 4 + 1];
    pixels[idx * 4 + 2] = palette[sentinel * 4 + 2];
    pixels[idx * 4 + 3] = palette[sentinel * 4 + 3];
}`

type openCLBackend struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program

	hKernel      *cl.Kernel
	eKernel      *cl.Kernel
	sourceKernel *cl.Kernel
	wallKernel   *cl.Kernel
	visKernel    *cl.Kernel
	clearKernel  *cl.Kernel

	ezBuf      *cl.MemObject
	hxBuf      *cl.MemObject
	hyBuf      *cl.MemObject
	pixelBuf   *cl.MemObject
	paletteBuf *cl.MemObject
	sourceBuf  *cl.MemObject
	wallBuf    *cl.MemObject

	width       int
	height      int
	sourceCount int
	wallCount   int
	surface     *grid.Surface
	deviceName  string
}

// NewOpenCLBackend runs the passes as OpenCL kernels on the first GPU found,
// falling back to an OpenCL CPU device. Each pass is a separate enqueue on
// an in-order queue, so the H pass retires before the E pass reads it.
func NewOpenCLBackend(s Setup) (Backend, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("opencl backend: invalid grid size %dx%d", s.Width, s.Height)
	}
	size := s.Width * s.Height
	if err := checkCells(s.SourceCells, size); err != nil {
		return nil, fmt.Errorf("opencl backend: source: %w", err)
	}
	pal := s.Palette
	if pal == nil {
		pal = NewPalette()
	}

	device, err := pickDevice()
	if err != nil {
		return nil, err
	}

	b := &openCLBackend{
		width:       s.Width,
		height:      s.Height,
		sourceCount: len(s.SourceCells),
		surface:     grid.NewSurface(s.Width, s.Height),
		deviceName:  device.Name(),
	}
	b.surface.Fill(ResetColor)
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	if b.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if b.queue, err = b.context.CreateCommandQueue(device, 0); err != nil {
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if b.program, err = b.context.CreateProgramWithSource([]string{fdtdKernelSource}); err != nil {
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := b.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}

	kernels := []struct {
		dst  **cl.Kernel
		name string
	}{
		{&b.hKernel, "update_h"},
		{&b.eKernel, "update_e"},
		{&b.sourceKernel, "inject_source"},
		{&b.wallKernel, "clear_walls"},
		{&b.visKernel, "visualize"},
		{&b.clearKernel, "clear_fields"},
	}
	for _, k := range kernels {
		if *k.dst, err = b.program.CreateKernel(k.name); err != nil {
			return nil, fmt.Errorf("creating %s kernel: %w", k.name, err)
		}
	}

	floatBytes := size * int(unsafe.Sizeof(float32(0)))
	indexBytes := int(unsafe.Sizeof(int32(0)))
	buffers := []struct {
		dst   **cl.MemObject
		flags cl.MemFlag
		bytes int
		label string
	}{
		{&b.ezBuf, cl.MemReadWrite, floatBytes, "Ez"},
		{&b.hxBuf, cl.MemReadWrite, floatBytes, "Hx"},
		{&b.hyBuf, cl.MemReadWrite, floatBytes, "Hy"},
		{&b.pixelBuf, cl.MemReadWrite, size * 4, "pixel"},
		{&b.paletteBuf, cl.MemReadOnly, PaletteSize * 4, "palette"},
		{&b.sourceBuf, cl.MemReadOnly, max(1, len(s.SourceCells)) * indexBytes, "source index"},
		{&b.wallBuf, cl.MemReadOnly, size * indexBytes, "wall index"},
	}
	for _, buf := range buffers {
		if *buf.dst, err = b.context.CreateEmptyBuffer(buf.flags, buf.bytes); err != nil {
			return nil, fmt.Errorf("allocating %s buffer: %w", buf.label, err)
		}
	}

	paletteBytes := pal.Bytes()
	if _, err := b.queue.EnqueueWriteBuffer(b.paletteBuf, true, 0, len(paletteBytes), unsafe.Pointer(&paletteBytes[0]), nil); err != nil {
		return nil, fmt.Errorf("writing palette buffer: %w", err)
	}
	if b.sourceCount > 0 {
		src := s.SourceCells
		if _, err := b.queue.EnqueueWriteBuffer(b.sourceBuf, true, 0, len(src)*indexBytes, unsafe.Pointer(&src[0]), nil); err != nil {
			return nil, fmt.Errorf("writing source index buffer: %w", err)
		}
	}

	w32, h32 := int32(s.Width), int32(s.Height)
	if err := b.hKernel.SetArgs(w32, h32, s.Courant, b.ezBuf, b.hxBuf, b.hyBuf); err != nil {
		return nil, fmt.Errorf("setting update_h arguments: %w", err)
	}
	if err := b.eKernel.SetArgs(w32, h32, s.Courant, b.ezBuf, b.hxBuf, b.hyBuf); err != nil {
		return nil, fmt.Errorf("setting update_e arguments: %w", err)
	}
	if err := b.sourceKernel.SetArgs(b.ezBuf, b.sourceBuf, int32(b.sourceCount), float32(0)); err != nil {
		return nil, fmt.Errorf("setting inject_source arguments: %w", err)
	}
	if err := b.wallKernel.SetArgs(b.ezBuf, b.wallBuf, int32(0)); err != nil {
		return nil, fmt.Errorf("setting clear_walls arguments: %w", err)
	}
	if err := b.visKernel.SetArgs(int32(size), s.Gain, b.ezBuf, b.paletteBuf, int32(PaletteSize), b.pixelBuf); err != nil {
		return nil, fmt.Errorf("setting visualize arguments: %w", err)
	}
	// The reset sentinel is the palette's zero-field entry.
	if err := b.clearKernel.SetArgs(int32(size), b.ezBuf, b.hxBuf, b.hyBuf, b.pixelBuf, b.paletteBuf, int32(PaletteSize/2)); err != nil {
		return nil, fmt.Errorf("setting clear_fields arguments: %w", err)
	}
	if err := b.Clear(); err != nil {
		return nil, err
	}

	ok = true
	return b, nil
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`")
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, errors.New("no suitable OpenCL devices found")
}

func (b *openCLBackend) Name() string { return "opencl: " + b.deviceName }

func (b *openCLBackend) global() []int { return []int{b.width * b.height} }

func (b *openCLBackend) UpdateH() error {
	if _, err := b.queue.EnqueueNDRangeKernel(b.hKernel, nil, b.global(), nil, nil); err != nil {
		return fmt.Errorf("enqueueing update_h: %w", err)
	}
	return nil
}

func (b *openCLBackend) UpdateE(source float32) error {
	if _, err := b.queue.EnqueueNDRangeKernel(b.eKernel, nil, b.global(), nil, nil); err != nil {
		return fmt.Errorf("enqueueing update_e: %w", err)
	}
	if b.sourceCount > 0 {
		if err := b.sourceKernel.SetArgFloat32(3, source); err != nil {
			return fmt.Errorf("setting source value: %w", err)
		}
		if _, err := b.queue.EnqueueNDRangeKernel(b.sourceKernel, nil, []int{b.sourceCount}, nil, nil); err != nil {
			return fmt.Errorf("enqueueing inject_source: %w", err)
		}
	}
	if b.wallCount > 0 {
		if _, err := b.queue.EnqueueNDRangeKernel(b.wallKernel, nil, []int{b.wallCount}, nil, nil); err != nil {
			return fmt.Errorf("clearing walls: %w", err)
		}
	}
	return nil
}

func (b *openCLBackend) Visualize() error {
	if _, err := b.queue.EnqueueNDRangeKernel(b.visKernel, nil, b.global(), nil, nil); err != nil {
		return fmt.Errorf("enqueueing visualize: %w", err)
	}
	return nil
}

func (b *openCLBackend) Clear() error {
	if _, err := b.queue.EnqueueNDRangeKernel(b.clearKernel, nil, b.global(), nil, nil); err != nil {
		return fmt.Errorf("enqueueing clear_fields: %w", err)
	}
	return nil
}

// Present blocks until the queue has drained into the host surface.
func (b *openCLBackend) Present() error {
	pix := b.surface.Pix()
	if _, err := b.queue.EnqueueReadBuffer(b.pixelBuf, true, 0, len(pix), unsafe.Pointer(&pix[0]), nil); err != nil {
		return fmt.Errorf("reading pixel buffer: %w", err)
	}
	return nil
}

func (b *openCLBackend) Surface() *grid.Surface { return b.surface }

func (b *openCLBackend) ReadFields(dst *grid.Fields) error {
	if dst.W != b.width || dst.H != b.height {
		return fmt.Errorf("reading fields: size %dx%d does not match %dx%d", dst.W, dst.H, b.width, b.height)
	}
	planes := []struct {
		buf   *cl.MemObject
		host  []float32
		label string
	}{
		{b.ezBuf, dst.Ez.Cells(), "Ez"},
		{b.hxBuf, dst.Hx.Cells(), "Hx"},
		{b.hyBuf, dst.Hy.Cells(), "Hy"},
	}
	for _, p := range planes {
		if _, err := b.queue.EnqueueReadBufferFloat32(p.buf, true, 0, p.host, nil); err != nil {
			return fmt.Errorf("reading %s buffer: %w", p.label, err)
		}
	}
	return nil
}

func (b *openCLBackend) SetBarrier(cells []int32) error {
	if err := checkCells(cells, b.width*b.height); err != nil {
		return fmt.Errorf("opencl backend: barrier: %w", err)
	}
	b.wallCount = len(cells)
	if b.wallCount > 0 {
		byteLen := len(cells) * int(unsafe.Sizeof(int32(0)))
		if _, err := b.queue.EnqueueWriteBuffer(b.wallBuf, true, 0, byteLen, unsafe.Pointer(&cells[0]), nil); err != nil {
			return fmt.Errorf("writing wall index buffer: %w", err)
		}
	}
	if err := b.wallKernel.SetArgInt32(2, int32(b.wallCount)); err != nil {
		return fmt.Errorf("setting wall count: %w", err)
	}
	if b.wallCount > 0 {
		if _, err := b.queue.EnqueueNDRangeKernel(b.wallKernel, nil, []int{b.wallCount}, nil, nil); err != nil {
			return fmt.Errorf("clearing walls: %w", err)
		}
	}
	return nil
}

func (b *openCLBackend) Close() {
	for _, buf := range []**cl.MemObject{&b.wallBuf, &b.sourceBuf, &b.paletteBuf, &b.pixelBuf, &b.hyBuf, &b.hxBuf, &b.ezBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	for _, k := range []**cl.Kernel{&b.clearKernel, &b.visKernel, &b.wallKernel, &b.sourceKernel, &b.eKernel, &b.hKernel} {
		if *k != nil {
			(*k).Release()
			*k = nil
		}
	}
	if b.program != nil {
		b.program.Release()
		b.program = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.context != nil {
		b.context.Release()
		b.context = nil
	}
}
